package repositories

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/shared"
)

// SongRepository implements models.FingerprintStore over the songs table.
//
// Tracks are addressed by filename; the integer rowid stays internal to the database.
type SongRepository struct {
	db *sql.DB
}

// SongRecord is one analyzer output row as accepted by [SongRepository.Import].
//
// A record with a non-empty Error is stored in the errors table instead of songs.
type SongRecord struct {
	Filename  string  `json:"filename"`
	Album     string  `json:"album"`
	Tempo     float64 `json:"tempo"`
	Tempo1    float64 `json:"tempo1"`
	Tempo2    float64 `json:"tempo2"`
	Tempo3    float64 `json:"tempo3"`
	Amplitude float64 `json:"amplitude"`
	Frequency float64 `json:"frequency"`
	Attack    float64 `json:"attack"`
	Error     string  `json:"error,omitempty"`
}

// Track converts the record to a [models.Track].
func (r SongRecord) Track() models.Track {
	return models.Track{
		ID:    r.Filename,
		Album: r.Album,
		Features: models.Features{
			Tempo:     r.Tempo,
			Tempo1:    r.Tempo1,
			Tempo2:    r.Tempo2,
			Tempo3:    r.Tempo3,
			Amplitude: r.Amplitude,
			Frequency: r.Frequency,
			Attack:    r.Attack,
		},
	}
}

// ImportSummary counts the outcome of an import.
type ImportSummary struct {
	Songs  int `json:"songs"`
	Errors int `json:"errors"`
}

const songColumns = "filename, album, tempo, tempo1, tempo2, tempo3, amplitude, frequency, attack"

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Get retrieves a track by filename
func (r *SongRepository) Get(ctx context.Context, id string) (*models.Track, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE filename = ?`

	track, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return track, err
}

// ListAll retrieves every track in insertion order
func (r *SongRepository) ListAll(ctx context.Context) ([]models.Track, error) {
	query := `SELECT ` + songColumns + ` FROM songs ORDER BY id ASC`
	return r.list(ctx, query)
}

// ListByGroup retrieves the tracks of one album in insertion order
func (r *SongRepository) ListByGroup(ctx context.Context, key string) ([]models.Track, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE album = ? ORDER BY id ASC`
	return r.list(ctx, query, key)
}

// ListGroupKeys returns every non-empty album name, sorted
func (r *SongRepository) ListGroupKeys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT album FROM songs WHERE album != '' ORDER BY album ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return keys, nil
}

// Count returns the number of fingerprinted tracks
func (r *SongRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return n, nil
}

// Upsert inserts a track or replaces the fingerprint of an existing filename.
//
// The rowid is kept on update so cached pairs stay attached.
func (r *SongRepository) Upsert(ctx context.Context, track models.Track) error {
	return upsertSong(ctx, r.db, track)
}

// ListErrors returns the filenames the analyzer failed on, sorted
func (r *SongRepository) ListErrors(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT filename FROM errors ORDER BY filename ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query errors: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan error row: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return files, nil
}

// Import reads analyzer output from rd and stores it in a single transaction.
//
// The input is either a JSON array of [SongRecord] or one record per line.
func (r *SongRepository) Import(ctx context.Context, rd io.Reader) (*ImportSummary, error) {
	records, err := decodeRecords(rd)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	summary := &ImportSummary{}
	for i, rec := range records {
		if rec.Filename == "" {
			return nil, fmt.Errorf("%w: record %d has no filename", shared.ErrInvalidInput, i)
		}

		if rec.Error != "" {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO errors (filename) VALUES (?)`, rec.Filename); err != nil {
				return nil, fmt.Errorf("failed to record analysis error for %s: %w", rec.Filename, err)
			}
			summary.Errors++
			continue
		}

		if err := upsertSong(ctx, tx, rec.Track()); err != nil {
			return nil, err
		}
		summary.Songs++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	return summary, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSong(ctx context.Context, db execer, track models.Track) error {
	query := `
		INSERT INTO songs (` + songColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			album = excluded.album,
			tempo = excluded.tempo,
			tempo1 = excluded.tempo1,
			tempo2 = excluded.tempo2,
			tempo3 = excluded.tempo3,
			amplitude = excluded.amplitude,
			frequency = excluded.frequency,
			attack = excluded.attack
	`

	f := track.Features
	_, err := db.ExecContext(ctx, query,
		track.ID,
		track.Album,
		f.Tempo,
		f.Tempo1,
		f.Tempo2,
		f.Tempo3,
		f.Amplitude,
		f.Frequency,
		f.Attack,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert song %s: %w", track.ID, err)
	}
	return nil
}

// decodeRecords accepts a JSON array or a stream of JSON objects.
func decodeRecords(rd io.Reader) ([]SongRecord, error) {
	br := bufio.NewReader(rd)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var records []SongRecord
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		return records, nil
	}

	var records []SongRecord
	for {
		var rec SongRecord
		err := dec.Decode(&rec)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", shared.ErrInvalidInput, len(records), err)
		}
		records = append(records, rec)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b[0])) {
			return b[0], nil
		}
		if _, err := br.ReadByte(); err != nil {
			return 0, err
		}
	}
}

func (r *SongRepository) list(ctx context.Context, query string, args ...any) ([]models.Track, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		track, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanOne scans a single [sql.Row] into a [models.Track]
func (r *SongRepository) scanOne(row *sql.Row) (*models.Track, error) {
	var t models.Track
	f := &t.Features

	err := row.Scan(&t.ID, &t.Album, &f.Tempo, &f.Tempo1, &f.Tempo2, &f.Tempo3, &f.Amplitude, &f.Frequency, &f.Attack)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	return &t, nil
}

// scanRow scans a row from [sql.Rows] into a [models.Track]
func (r *SongRepository) scanRow(rows *sql.Rows) (*models.Track, error) {
	var t models.Track
	f := &t.Features

	if err := rows.Scan(&t.ID, &t.Album, &f.Tempo, &f.Tempo1, &f.Tempo2, &f.Tempo3, &f.Amplitude, &f.Frequency, &f.Attack); err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	return &t, nil
}
