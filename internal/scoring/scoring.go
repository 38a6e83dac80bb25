package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/desertthunder/blissify/internal/models"
)

var (
	// ErrEmptyInput is returned by [Mean] for an empty set of tracks.
	ErrEmptyInput = errors.New("mean of empty set")

	// ErrZeroVector is returned by [Similarity] when either vector has zero norm.
	ErrZeroVector = errors.New("cosine similarity undefined for zero vector")
)

// DimensionMismatchError indicates two vectors of different lengths were compared.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func checkDims(a, b []float64) error {
	if len(a) != len(b) {
		return &DimensionMismatchError{Expected: len(a), Actual: len(b)}
	}
	return nil
}

// Distance calculates the Euclidean distance between two vectors.
func Distance(a, b []float64) (float64, error) {
	if err := checkDims(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Dot calculates the dot product of two vectors of equal length.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm calculates the L2 norm of v.
func Norm(v []float64) float64 {
	return math.Sqrt(Dot(v, v))
}

// Similarity calculates the cosine similarity of two vectors.
//
// Returns [ErrZeroVector] when either vector has zero norm.
func Similarity(a, b []float64) (float64, error) {
	if err := checkDims(a, b); err != nil {
		return 0, err
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}
	s := Dot(a, b) / (na * nb)
	// rounding can push parallel vectors a hair past the unit interval
	return math.Max(-1, math.Min(1, s)), nil
}

// Mean returns the component-wise mean of the tracks' feature vectors.
func Mean(tracks []models.Track, dims models.Dimensions) ([]float64, error) {
	if len(tracks) == 0 {
		return nil, ErrEmptyInput
	}

	mean := make([]float64, int(dims))
	for _, t := range tracks {
		v, err := t.Features.Vector(dims)
		if err != nil {
			return nil, err
		}
		for i := range mean {
			mean[i] += v[i]
		}
	}

	n := float64(len(tracks))
	for i := range mean {
		mean[i] /= n
	}
	return mean, nil
}

// GroupDistance is the distance between the mean vectors of two groups of tracks.
func GroupDistance(g1, g2 []models.Track, dims models.Dimensions) (float64, error) {
	m1, err := Mean(g1, dims)
	if err != nil {
		return 0, err
	}
	m2, err := Mean(g2, dims)
	if err != nil {
		return 0, err
	}
	return Distance(m1, m2)
}

// Compare scores two tracks, producing the record stored in the pair cache.
//
// With tolerateZero set, a zero vector yields a result without similarity instead of [ErrZeroVector].
func Compare(a, b models.Track, dims models.Dimensions, tolerateZero bool) (models.PairResult, error) {
	va, err := a.Features.Vector(dims)
	if err != nil {
		return models.PairResult{}, err
	}
	vb, err := b.Features.Vector(dims)
	if err != nil {
		return models.PairResult{}, err
	}

	dist, err := Distance(va, vb)
	if err != nil {
		return models.PairResult{}, err
	}

	res := models.PairResult{Distance: dist}
	sim, err := Similarity(va, vb)
	switch {
	case err == nil:
		res.Similarity = sim
		res.HasSimilarity = true
	case errors.Is(err, ErrZeroVector) && tolerateZero:
	default:
		return models.PairResult{}, fmt.Errorf("similarity of %s and %s: %w", a.ID, b.ID, err)
	}
	return res, nil
}
