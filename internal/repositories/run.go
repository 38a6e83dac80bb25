package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/blissify/internal/models"
)

// RunRepository persists the history of generated playlists.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a finished run
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (
			id, mode, seed, requested, picked, stop_reason,
			error_message, dry_run, started_at, completed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errorMessage any = run.ErrorMessage
	if errorMessage == "" {
		errorMessage = nil
	}

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.Mode,
		run.Seed,
		run.Requested,
		run.Picked,
		run.StopReason,
		errorMessage,
		run.DryRun,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(ctx context.Context, id string) (*models.Run, error) {
	query := `
		SELECT
			id, mode, seed, requested, picked, stop_reason,
			error_message, dry_run, started_at, completed_at
		FROM runs
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// List retrieves the most recent runs, newest first. A non-positive limit returns all runs.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `
		SELECT
			id, mode, seed, requested, picked, stop_reason,
			error_message, dry_run, started_at, completed_at
		FROM runs
		ORDER BY started_at DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run          models.Run
		errorMessage sql.NullString
	)

	err := s.Scan(
		&run.ID,
		&run.Mode,
		&run.Seed,
		&run.Requested,
		&run.Picked,
		&run.StopReason,
		&errorMessage,
		&run.DryRun,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	run.ErrorMessage = errorMessage.String
	return &run, nil
}

// scanOne scans a single [sql.Row] into a [models.Run]
func (r *RunRepository) scanOne(row *sql.Row) (*models.Run, error) {
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return run, nil
}

// scanRow scans a row from [sql.Rows] into a [models.Run]
func (r *RunRepository) scanRow(rows *sql.Rows) (*models.Run, error) {
	run, err := scanRun(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return run, nil
}
