// package formatter renders playlist runs and cache listings as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/shared"
	"github.com/desertthunder/blissify/internal/tasks"
)

// Format is an output format for a finished run.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat accepts a format name or its common short form.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json, markdown or csv)", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMarkdown:
		return "md"
	case FormatCSV:
		return "csv"
	default:
		return "txt"
	}
}

// Render converts res to the given format.
func Render(res *tasks.Result, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return ResultToText(res)
	case FormatJSON:
		return ResultToJSON(res)
	case FormatMarkdown:
		return ResultToMarkdown(res)
	case FormatCSV:
		return ResultToCSV(res)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// WriteResult renders res and writes it to w.
func WriteResult(w io.Writer, res *tasks.Result, f Format) error {
	data, err := Render(res, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s output: %w", f, err)
	}
	return nil
}

// WriteResultFile renders res into a file.
//
// Defaults to {run id}.{ext} in the working directory when path is empty.
func WriteResultFile(res *tasks.Result, f Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.%s", res.RunID, f.Extension())
	}

	data, err := Render(res, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

// ResultToCSV writes one row per pick with columns: Step, ID, Album, Distance, Similarity, Source
func ResultToCSV(res *tasks.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Step", "ID", "Album", "Distance", "Similarity", "Source"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range res.Picks {
		similarity := ""
		if p.HasSimilarity {
			similarity = strconv.FormatFloat(p.Similarity, 'f', 6, 64)
		}
		record := []string{
			strconv.Itoa(p.Step),
			p.TrackID,
			p.Album,
			strconv.FormatFloat(p.Distance, 'f', 6, 64),
			similarity,
			string(p.Source),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ResultToMarkdown converts a run to a Markdown document with a summary and a pick table
func ResultToMarkdown(res *tasks.Result) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Playlist from %s\n\n", res.Seed))
	buf.WriteString(fmt.Sprintf("**Mode**: %s\n", res.Mode))
	buf.WriteString(fmt.Sprintf("**Picks**: %d of %d requested\n", len(res.Picks), res.Requested))
	buf.WriteString(fmt.Sprintf("**Stopped**: %s\n", res.Stop))
	if res.Error != "" {
		buf.WriteString(fmt.Sprintf("**Error**: %s\n", res.Error))
	}
	buf.WriteString(fmt.Sprintf("**Duration**: %s\n\n", FormatDuration(res.CompletedAt.Sub(res.StartedAt))))

	if len(res.Picks) == 0 {
		buf.WriteString("_No tracks were added._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("## Tracks\n\n")
	buf.WriteString("| # | Track | Album | Distance | Similarity | Source |\n")
	buf.WriteString("|---|-------|-------|----------|------------|--------|\n")
	for i, p := range res.Picks {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %.4f | %s | %s |\n",
			i+1, escapeCell(p.TrackID), escapeCell(p.Album), p.Distance, similarityString(p), p.Source))
	}
	return buf.Bytes(), nil
}

// ResultToText converts a run to a numbered plain text listing
func ResultToText(res *tasks.Result) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Seed: %s\n", res.Seed))
	buf.WriteString(fmt.Sprintf("Mode: %s\n", res.Mode))
	buf.WriteString(fmt.Sprintf("Picks: %d/%d (%s)\n", len(res.Picks), res.Requested, res.Stop))
	if res.Error != "" {
		buf.WriteString(fmt.Sprintf("Error: %s\n", res.Error))
	}
	buf.WriteString("\n")

	for i, p := range res.Picks {
		buf.WriteString(fmt.Sprintf("%d. %s [%.4f, %s]\n", i+1, p.TrackID, p.Distance, p.Source))
	}
	return buf.Bytes(), nil
}

// ResultToJSON returns the indented JSON encoding of a run
func ResultToJSON(res *tasks.Result) ([]byte, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteNeighbors prints the cached neighbors of id as an aligned table.
func WriteNeighbors(w io.Writer, id string, neighbors []models.Neighbor) error {
	if len(neighbors) == 0 {
		_, err := fmt.Fprintf(w, "No cached neighbors for %s\n", id)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDISTANCE\tSIMILARITY\tID")
	for i, n := range neighbors {
		similarity := "-"
		if n.HasSimilarity {
			similarity = fmt.Sprintf("%.4f", n.Similarity)
		}
		fmt.Fprintf(tw, "%d\t%.4f\t%s\t%s\n", i+1, n.Distance, similarity, n.ID)
	}
	return tw.Flush()
}

// WriteBuildStats prints a cache warming summary.
func WriteBuildStats(w io.Writer, stats *tasks.BuildStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tracks:\t%d\n", stats.Tracks)
	fmt.Fprintf(tw, "Pairs:\t%d\n", stats.Pairs)
	fmt.Fprintf(tw, "Already cached:\t%d\n", stats.Skipped)
	fmt.Fprintf(tw, "Computed:\t%d\n", stats.Computed)
	fmt.Fprintf(tw, "Inserted:\t%d\n", stats.Inserted)
	fmt.Fprintf(tw, "Conflicts:\t%d\n", stats.Conflicts)
	return tw.Flush()
}

// WriteRuns prints recorded runs, newest first as given.
func WriteRuns(w io.Writer, runs []*models.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded yet")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tMODE\tPICKED\tSTOP\tSEED")
	for _, r := range runs {
		stop := r.StopReason
		if r.DryRun {
			stop += " (dry run)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			shortID(r.ID), r.StartedAt.Local().Format(time.DateTime), r.Mode, r.Picked, r.Requested, stop, r.Seed)
	}
	return tw.Flush()
}

// WriteSongs prints one track per line with its album.
func WriteSongs(w io.Writer, tracks []models.Track) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range tracks {
		album := t.Album
		if album == "" {
			album = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", t.ID, album)
	}
	return tw.Flush()
}

// FormatDuration renders d rounded to milliseconds, or "0s".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(time.Millisecond).String()
}

func similarityString(p tasks.Pick) string {
	if !p.HasSimilarity {
		return "-"
	}
	return fmt.Sprintf("%.4f", p.Similarity)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
