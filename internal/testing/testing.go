// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/shared"
)

// MemoryStore is an in-memory [models.FingerprintStore] that keeps insertion order.
type MemoryStore struct {
	tracks []models.Track
}

// NewMemoryStore creates a store holding tracks in the given order.
func NewMemoryStore(tracks ...models.Track) *MemoryStore {
	return &MemoryStore{tracks: tracks}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Track, error) {
	for i := range s.tracks {
		if s.tracks[i].ID == id {
			t := s.tracks[i]
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]models.Track, error) {
	return append([]models.Track(nil), s.tracks...), nil
}

func (s *MemoryStore) ListByGroup(ctx context.Context, key string) ([]models.Track, error) {
	var out []models.Track
	for _, t := range s.tracks {
		if t.Album == key {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListGroupKeys(ctx context.Context) ([]string, error) {
	seen := models.NewIDSet()
	var keys []string
	for _, t := range s.tracks {
		if t.Album != "" && !seen.Has(t.Album) {
			seen.Add(t.Album)
			keys = append(keys, t.Album)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// MemoryCache is an in-memory [models.PairCache] that counts insert attempts.
type MemoryCache struct {
	mu      sync.Mutex
	pairs   map[models.PairKey]models.PairResult
	Inserts int // every Insert call
	Writes  int // inserts that stored a record
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{pairs: make(map[models.PairKey]models.PairResult)}
}

func (c *MemoryCache) Neighbors(ctx context.Context, id string, exclude models.IDSet) ([]models.Neighbor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.Neighbor
	for k, r := range c.pairs {
		if k.A != id && k.B != id {
			continue
		}
		other := k.Other(id)
		if exclude.Has(other) {
			continue
		}
		out = append(out, models.Neighbor{ID: other, PairResult: r})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *MemoryCache) Insert(ctx context.Context, key models.PairKey, res models.PairResult) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Inserts++
	if _, ok := c.pairs[key]; ok {
		return false, nil
	}
	c.pairs[key] = res
	c.Writes++
	return true, nil
}

// Count returns the number of stored pairs.
func (c *MemoryCache) Count(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pairs), nil
}

// Get returns the stored result for the pair {a, b}.
func (c *MemoryCache) Get(a, b string) (models.PairResult, bool) {
	key, err := models.NewPairKey(a, b)
	if err != nil {
		return models.PairResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.pairs[key]
	return r, ok
}

// ScriptedQueue is a [models.QueueSink] with failure injection.
type ScriptedQueue struct {
	Queued    []string
	Seed      string
	Appended  []string
	FailAfter int   // Append fails once this many appends succeeded; negative disables
	AppendErr error // returned by the failing Append
	SeedErr   error
	QueueErr  error
	// OnAppend runs after each successful append
	OnAppend func(id string)
}

// NewScriptedQueue creates a queue with the given entries whose seed is the last entry.
func NewScriptedQueue(queued ...string) *ScriptedQueue {
	q := &ScriptedQueue{Queued: queued, FailAfter: -1}
	if len(queued) > 0 {
		q.Seed = queued[len(queued)-1]
	}
	return q
}

func (q *ScriptedQueue) QueueIDs(ctx context.Context) ([]string, error) {
	if q.QueueErr != nil {
		return nil, q.QueueErr
	}
	return append([]string(nil), q.Queued...), nil
}

func (q *ScriptedQueue) SeedID(ctx context.Context) (string, error) {
	if q.SeedErr != nil {
		return "", q.SeedErr
	}
	if q.Seed == "" {
		return "", errors.New("queue is empty")
	}
	return q.Seed, nil
}

func (q *ScriptedQueue) Append(ctx context.Context, id string) error {
	if q.FailAfter >= 0 && len(q.Appended) >= q.FailAfter {
		if q.AppendErr != nil {
			return q.AppendErr
		}
		return errors.New("connection reset by peer")
	}
	q.Appended = append(q.Appended, id)
	if q.OnAppend != nil {
		q.OnAppend(id)
	}
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
