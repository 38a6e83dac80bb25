package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/scoring"
)

// group is an album with its tracks in store order.
type group struct {
	key      string
	tracks   []models.Track
	distance float64
}

// Albums generates a playlist one album at a time.
//
// Albums are compared by the distance between their mean fingerprints; the pair cache is not used. Each step appends
// every track of the chosen album. A seed without an album forms a group of its own.
func (e *Engine) Albums(ctx context.Context, req Request, progress chan<- ProgressUpdate) (*Result, error) {
	r, seed, err := e.begin(ctx, ModeAlbums, req, progress)
	if err != nil {
		return e.finish(ctx, r, StopAborted, err, progress)
	}

	current := group{key: seed.Album, tracks: []models.Track{*seed}}
	if seed.Album != "" {
		tracks, err := e.store.ListByGroup(ctx, seed.Album)
		if err != nil {
			return e.finish(ctx, r, StopAborted, fmt.Errorf("list album %q: %w", seed.Album, err), progress)
		}
		if len(tracks) > 0 {
			current.tracks = tracks
		}
	}
	for _, t := range current.tracks {
		r.exclude.Add(t.ID)
	}

	keys, err := e.store.ListGroupKeys(ctx)
	if err != nil {
		return e.finish(ctx, r, StopAborted, fmt.Errorf("list albums: %w", err), progress)
	}

	members := make(map[string][]models.Track, len(keys))
	for _, key := range keys {
		tracks, err := e.store.ListByGroup(ctx, key)
		if err != nil {
			return e.finish(ctx, r, StopAborted, fmt.Errorf("list album %q: %w", key, err), progress)
		}
		members[key] = tracks
	}

	for step := 1; step <= req.Length; step++ {
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, r, StopCancelled, nil, progress)
		}

		e.sendProgress(progress, groupsUpdate(step, req.Length, current.key))

		next, err := e.nextGroup(r, current, keys, members)
		if err != nil {
			return e.finish(ctx, r, StopAborted, err, progress)
		}
		if next == nil {
			r.logger.Info("no albums left", "step", step)
			return e.finish(ctx, r, StopExhausted, nil, progress)
		}

		r.logger.Info("found a close album", "album", next.key, "distance", next.distance, "tracks", len(next.tracks))

		for _, t := range next.tracks {
			if r.exclude.Has(t.ID) {
				continue
			}
			pick := Pick{Step: step, TrackID: t.ID, Album: next.key, Distance: next.distance, Source: SourceGroup}
			if err := e.appendPick(ctx, r, pick); err != nil {
				return e.finish(ctx, r, StopAborted, err, progress)
			}
			e.sendProgress(progress, pickUpdate(step, req.Length, pick))
		}
		r.result.Steps = step

		current = *next
	}

	return e.finish(ctx, r, StopCompleted, nil, progress)
}

// nextGroup ranks the eligible albums by distance to current and applies the selection policy.
func (e *Engine) nextGroup(r *run, current group, keys []string, members map[string][]models.Track) (*group, error) {
	target, err := scoring.Mean(current.tracks, e.opts.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("mean of album %q: %w", current.key, err)
	}

	var ranked []group
	for _, key := range keys {
		tracks := members[key]
		if key == "" || key == current.key || len(tracks) == 0 || r.exclude.Has(tracks[0].ID) {
			continue
		}

		mean, err := scoring.Mean(tracks, e.opts.Dimensions)
		if err != nil {
			if errors.Is(err, scoring.ErrEmptyInput) {
				return nil, fmt.Errorf("album %q has no tracks: %w", key, err)
			}
			return nil, err
		}
		d, err := scoring.Distance(target, mean)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, group{key: key, tracks: tracks, distance: d})
	}

	if len(ranked) == 0 {
		return nil, nil
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].key < ranked[j].key
	})

	idx := 0
	if e.opts.Selection == SelectRandom {
		idx = e.rng.Intn(min(e.opts.topK(), len(ranked)))
	}
	return &ranked[idx], nil
}
