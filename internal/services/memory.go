package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/desertthunder/blissify/internal/shared"
)

// MemoryQueue is an in-process queue used for dry runs.
//
// When the queue is empty, SeedID picks a random entry from library and appends it, as the player adapter does.
type MemoryQueue struct {
	mu      sync.Mutex
	entries []string
	library []string
	rng     *rand.Rand
}

// NewMemoryQueue creates a queue holding initial, seeding from library when empty.
func NewMemoryQueue(initial, library []string, rng *rand.Rand) *MemoryQueue {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &MemoryQueue{entries: append([]string(nil), initial...), library: library, rng: rng}
}

// QueueIDs returns a copy of the queued ids.
func (q *MemoryQueue) QueueIDs(ctx context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.entries...), nil
}

// SeedID returns the last entry, seeding from the library when the queue is empty.
func (q *MemoryQueue) SeedID(ctx context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n := len(q.entries); n > 0 {
		return q.entries[n-1], nil
	}
	if len(q.library) == 0 {
		return "", fmt.Errorf("%w: library is empty", shared.ErrEmptyLibrary)
	}

	seed := q.library[q.rng.Intn(len(q.library))]
	q.entries = append(q.entries, seed)
	return seed, nil
}

// Append adds id to the queue.
func (q *MemoryQueue) Append(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, id)
	return nil
}
