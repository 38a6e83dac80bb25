// package models defines the data model for the blissify playlist generator
package models

import (
	"context"
	"fmt"
)

// Dimensions selects which fingerprint components make up a feature vector.
type Dimensions int

const (
	Dimensions4 Dimensions = 4 // tempo, amplitude, frequency, attack
	Dimensions6 Dimensions = 6 // tempo1, tempo2, tempo3, amplitude, frequency, attack
)

// Valid reports whether d is a supported dimensionality.
func (d Dimensions) Valid() bool {
	return d == Dimensions4 || d == Dimensions6
}

// Features is the audio fingerprint of a track as written by the external analyzer.
type Features struct {
	Tempo     float64 `json:"tempo"`
	Tempo1    float64 `json:"tempo1"`
	Tempo2    float64 `json:"tempo2"`
	Tempo3    float64 `json:"tempo3"`
	Amplitude float64 `json:"amplitude"`
	Frequency float64 `json:"frequency"`
	Attack    float64 `json:"attack"`
}

// Vector returns the feature vector for the given dimensionality.
//
// A 4-dimensional vector uses the single tempo value; a 6-dimensional vector uses the three sub-tempo components instead.
func (f Features) Vector(d Dimensions) ([]float64, error) {
	switch d {
	case Dimensions4:
		return []float64{f.Tempo, f.Amplitude, f.Frequency, f.Attack}, nil
	case Dimensions6:
		return []float64{f.Tempo1, f.Tempo2, f.Tempo3, f.Amplitude, f.Frequency, f.Attack}, nil
	default:
		return nil, fmt.Errorf("unsupported feature dimensions: %d", d)
	}
}

// Track is a fingerprinted song. ID is the player's identifier (a file path for MPD).
type Track struct {
	ID       string   `json:"id"`
	Album    string   `json:"album,omitempty"`
	Features Features `json:"features"`
}

// PairKey is an unordered pair of track identifiers in canonical (lexicographic) order.
type PairKey struct {
	A string
	B string
}

// NewPairKey canonicalizes the pair {a, b}. Self pairs are rejected.
func NewPairKey(a, b string) (PairKey, error) {
	if a == b {
		return PairKey{}, fmt.Errorf("pair key requires two distinct tracks, got %q twice", a)
	}
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}, nil
}

// Other returns the endpoint of the pair that is not id.
func (k PairKey) Other(id string) string {
	if k.A == id {
		return k.B
	}
	return k.A
}

func (k PairKey) String() string { return k.A + " <-> " + k.B }

// PairResult is the memoized comparison of two tracks.
//
// Similarity is optional: rows written by distance-only scoring, or comparisons against a zero vector with the
// similarity gate relaxed, carry no similarity.
type PairResult struct {
	Distance      float64 `json:"distance"`
	Similarity    float64 `json:"similarity"`
	HasSimilarity bool    `json:"has_similarity"`
}

// Neighbor is a cached comparison seen from one endpoint.
type Neighbor struct {
	ID string
	PairResult
}

// IDSet is a set of track identifiers.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set is empty.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set.
func (s IDSet) Add(id string) { s[id] = struct{}{} }

// FingerprintStore is the read side of the fingerprint database.
type FingerprintStore interface {
	// Get returns shared.ErrTrackNotFound for unknown ids.
	Get(ctx context.Context, id string) (*Track, error)

	// ListAll returns every track in stable store order.
	ListAll(ctx context.Context) ([]Track, error)

	// ListByGroup returns the tracks of one album in store order.
	ListByGroup(ctx context.Context, key string) ([]Track, error)

	// ListGroupKeys returns every non-empty album key, sorted.
	ListGroupKeys(ctx context.Context) ([]string, error)
}

// PairCache memoizes pairwise comparisons keyed by unordered track pair.
type PairCache interface {
	// Neighbors returns cached comparisons anchored at id (either orientation), ascending by distance,
	// leaving out any neighbor in exclude.
	Neighbors(ctx context.Context, id string, exclude IDSet) ([]Neighbor, error)

	// Insert stores res for key if absent. It reports false, without error, when the pair is already cached.
	Insert(ctx context.Context, key PairKey, res PairResult) (bool, error)
}

// QueueSink is the live playback queue the generated playlist is appended to.
type QueueSink interface {
	QueueIDs(ctx context.Context) ([]string, error) // QueueIDs lists identifiers already playing or queued
	SeedID(ctx context.Context) (string, error)     // SeedID returns the track to start from
	Append(ctx context.Context, id string) error    // Append adds id to the end of the queue
}
