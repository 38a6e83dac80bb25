package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/shared"
)

// DistanceRepository implements models.PairCache over the distances table.
//
// Rows are keyed by song rowids with song1 holding the lexicographically smaller filename.
// Lookups read both orientations so rows written by other tools are still found.
// Duplicate inserts are silently ignored.
type DistanceRepository struct {
	db *sql.DB
}

// NewDistanceRepository creates a new DistanceRepository with the given database connection
func NewDistanceRepository(db *sql.DB) *DistanceRepository {
	return &DistanceRepository{db: db}
}

// Neighbors returns the cached comparisons anchored at id, closest first.
func (r *DistanceRepository) Neighbors(ctx context.Context, id string, exclude models.IDSet) ([]models.Neighbor, error) {
	query := `
		SELECT o.filename, d.distance, d.similarity
		FROM songs s
		JOIN distances d ON d.song1 = s.id
		JOIN songs o ON o.id = d.song2
		WHERE s.filename = ?
		UNION ALL
		SELECT o.filename, d.distance, d.similarity
		FROM songs s
		JOIN distances d ON d.song2 = s.id
		JOIN songs o ON o.id = d.song1
		WHERE s.filename = ?
		ORDER BY 2 ASC, 1 ASC
	`

	rows, err := r.db.QueryContext(ctx, query, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors of %s: %w", id, err)
	}
	defer rows.Close()

	var neighbors []models.Neighbor
	for rows.Next() {
		var (
			n   models.Neighbor
			sim sql.NullFloat64
		)
		if err := rows.Scan(&n.ID, &n.Distance, &sim); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor: %w", err)
		}
		if exclude.Has(n.ID) {
			continue
		}
		n.Similarity, n.HasSimilarity = sim.Float64, sim.Valid
		neighbors = append(neighbors, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return neighbors, nil
}

// Insert stores res for key unless the pair is already cached in either orientation.
//
// The existence check and the write are one statement, so the row is either fully written or absent.
func (r *DistanceRepository) Insert(ctx context.Context, key models.PairKey, res models.PairResult) (bool, error) {
	err := r.insert(ctx, key, res)
	if errors.Is(err, ErrAlreadyCached) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *DistanceRepository) insert(ctx context.Context, key models.PairKey, res models.PairResult) error {
	query := `
		INSERT INTO distances (song1, song2, distance, similarity)
		SELECT a.id, b.id, ?, ?
		FROM songs a, songs b
		WHERE a.filename = ? AND b.filename = ?
		AND NOT EXISTS (
			SELECT 1 FROM distances
			WHERE (song1 = a.id AND song2 = b.id) OR (song1 = b.id AND song2 = a.id)
		)
	`

	sim := sql.NullFloat64{Float64: res.Similarity, Valid: res.HasSimilarity}
	result, err := r.db.ExecContext(ctx, query, res.Distance, sim, key.A, key.B)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrAlreadyCached
		}
		return fmt.Errorf("failed to cache pair %s: %w", key, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// nothing written: either the pair exists or an endpoint is unknown
	var known int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs WHERE filename IN (?, ?)`, key.A, key.B).Scan(&known)
	if err != nil {
		return fmt.Errorf("failed to check pair endpoints: %w", err)
	}
	if known < 2 {
		return fmt.Errorf("%w: cannot cache pair %s", shared.ErrTrackNotFound, key)
	}
	return ErrAlreadyCached
}

// Count returns the number of cached pairs
func (r *DistanceRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM distances`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count distances: %w", err)
	}
	return n, nil
}
