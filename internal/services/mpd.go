package services

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/fhs/gompd/v2/mpd"
	"golang.org/x/time/rate"

	"github.com/desertthunder/blissify/internal/shared"
)

// MPDQueue implements models.QueueSink against a running MPD server.
type MPDQueue struct {
	rc      *Reconnector
	limiter *rate.Limiter
	rng     *rand.Rand
}

// NewMPDQueue creates a queue adapter.
//
// appendsPerSecond paces Append calls; zero or less disables pacing.
func NewMPDQueue(rc *Reconnector, appendsPerSecond float64, rng *rand.Rand) *MPDQueue {
	limit := rate.Inf
	if appendsPerSecond > 0 {
		limit = rate.Limit(appendsPerSecond)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &MPDQueue{rc: rc, limiter: rate.NewLimiter(limit, 1), rng: rng}
}

// QueueIDs returns the file of every entry in the current queue, in queue order.
func (q *MPDQueue) QueueIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := q.rc.Do(ctx, "playlistinfo", func(c mpdClient) error {
		entries, err := c.PlaylistInfo(-1, -1)
		if err != nil {
			return err
		}
		ids = queueFiles(entries)
		return nil
	})
	return ids, err
}

// SeedID returns the last queued file.
//
// With an empty queue a random library file is added and used as the seed.
func (q *MPDQueue) SeedID(ctx context.Context) (string, error) {
	ids, err := q.QueueIDs(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) > 0 {
		return ids[len(ids)-1], nil
	}

	var files []string
	err = q.rc.Do(ctx, "listall", func(c mpdClient) error {
		all, err := c.GetFiles()
		files = all
		return err
	})
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: player library is empty", shared.ErrQueueUnavailable)
	}

	seed := files[q.rng.Intn(len(files))]
	if err := q.Append(ctx, seed); err != nil {
		return "", err
	}
	return seed, nil
}

// Append adds id to the end of the queue.
func (q *MPDQueue) Append(ctx context.Context, id string) error {
	if err := q.limiter.Wait(ctx); err != nil {
		return err
	}
	return q.rc.Do(ctx, "add", func(c mpdClient) error {
		return c.Add(id)
	})
}

// RandomEnabled reports whether the player's random playback mode is on.
func (q *MPDQueue) RandomEnabled(ctx context.Context) (bool, error) {
	var on bool
	err := q.rc.Do(ctx, "status", func(c mpdClient) error {
		st, err := c.Status()
		if err != nil {
			return err
		}
		on = st["random"] == "1"
		return nil
	})
	return on, err
}

// Close releases the player connection.
func (q *MPDQueue) Close() error {
	return q.rc.Close()
}

func queueFiles(entries []mpd.Attrs) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if f := e["file"]; f != "" {
			ids = append(ids, f)
		}
	}
	return ids
}
