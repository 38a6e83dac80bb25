package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/blissify/internal/formatter"
	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/shared"
)

// SongsImport loads analyzer output into the fingerprint store.
func (r *Runner) SongsImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to analyzer output (or - for stdin)", shared.ErrMissingArgument)
	}

	var src io.Reader = r.input
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		src = f
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.songs.Import(ctx, src)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	total, err := st.songs.Count(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("imported analysis", "songs", summary.Songs, "errors", summary.Errors, "total", total)
	r.writePlain("✓ Imported %d songs (%d analysis errors)\n", summary.Songs, summary.Errors)
	r.writePlain("  Library size: %d\n", total)
	return nil
}

// SongsList prints the fingerprinted songs, optionally restricted to one album.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var tracks []models.Track
	if album := cmd.String("album"); album != "" {
		tracks, err = st.songs.ListByGroup(ctx, album)
	} else {
		tracks, err = st.songs.ListAll(ctx)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}
	if len(tracks) == 0 {
		return r.writePlain("No songs found\n")
	}
	return formatter.WriteSongs(r.output, tracks)
}

// SongsErrors prints the files the analyzer could not process.
func (r *Runner) SongsErrors(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	files, err := st.songs.ListErrors(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return r.writePlain("No analysis errors recorded\n")
	}

	r.writePlainHeader(fmt.Sprintf("%d files failed analysis", len(files)))
	for _, f := range files {
		r.writePlain("  %s\n", f)
	}
	return nil
}
