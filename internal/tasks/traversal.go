package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/scoring"
	"github.com/desertthunder/blissify/internal/shared"
)

// run holds the state of one traversal.
type run struct {
	result  *Result
	exclude models.IDSet
	logger  *log.Logger
}

// candidate is a scored track under consideration for the next pick.
type candidate struct {
	track *models.Track
	models.PairResult
}

func (e *Engine) begin(ctx context.Context, mode Mode, req Request, progress chan<- ProgressUpdate) (*run, *models.Track, error) {
	r := &run{
		result: &Result{
			RunID:     shared.GenerateID(),
			Mode:      mode,
			Requested: req.Length,
			Picks:     []Pick{},
			StartedAt: time.Now(),
		},
	}
	r.logger = shared.WithLogger(e.logger, "run", r.result.RunID[:8], "mode", mode)

	if req.Length < 0 {
		return r, nil, fmt.Errorf("%w: length must not be negative", shared.ErrInvalidArgument)
	}

	e.sendProgress(progress, seedUpdate(req.SeedID))

	seedID := req.SeedID
	if seedID == "" {
		id, err := e.queue.SeedID(ctx)
		if err != nil {
			return r, nil, fmt.Errorf("%w: seed: %w", shared.ErrQueueUnavailable, err)
		}
		seedID = id
	}
	r.result.Seed = seedID

	current, err := e.store.Get(ctx, seedID)
	if err != nil {
		return r, nil, fmt.Errorf("seed track: %w", err)
	}

	queued, err := e.queue.QueueIDs(ctx)
	if err != nil {
		return r, nil, fmt.Errorf("%w: queue: %w", shared.ErrQueueUnavailable, err)
	}
	r.exclude = models.NewIDSet(queued...)
	r.exclude.Add(current.ID)

	r.logger.Info("starting playlist", "seed", seedID, "length", req.Length, "queued", len(queued))
	return r, current, nil
}

// finish stamps the result and classifies err. Context cancellation is an early stop, not a failure.
func (e *Engine) finish(ctx context.Context, r *run, stop StopReason, err error, progress chan<- ProgressUpdate) (*Result, error) {
	res := r.result
	res.CompletedAt = time.Now()

	if err != nil && ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		stop, err = StopCancelled, nil
	}
	if err != nil {
		res.Stop = StopAborted
		res.Error = err.Error()
		r.logger.Error("playlist aborted", "picks", len(res.Picks), "error", err)
		e.sendProgress(progress, doneUpdate(res))
		return res, err
	}

	res.Stop = stop
	r.logger.Info("playlist finished", "picks", len(res.Picks), "stop", stop)
	e.sendProgress(progress, doneUpdate(res))
	return res, nil
}

// appendPick enqueues pick and records it. Picks are recorded only once the queue accepted them.
func (e *Engine) appendPick(ctx context.Context, r *run, pick Pick) error {
	if err := e.queue.Append(ctx, pick.TrackID); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: append %s: %w", shared.ErrQueueUnavailable, pick.TrackID, err)
	}
	r.exclude.Add(pick.TrackID)
	r.result.Picks = append(r.result.Picks, pick)
	return nil
}

// Songs generates a playlist one track at a time.
//
// Each step probes the pair cache from the current track, then scans the library computing (and caching) missing
// comparisons until a candidate qualifies, and otherwise falls back to the closest candidate seen.
func (e *Engine) Songs(ctx context.Context, req Request, progress chan<- ProgressUpdate) (*Result, error) {
	r, current, err := e.begin(ctx, ModeSongs, req, progress)
	if err != nil {
		return e.finish(ctx, r, StopAborted, err, progress)
	}

	library, err := e.store.ListAll(ctx)
	if err != nil {
		return e.finish(ctx, r, StopAborted, fmt.Errorf("list library: %w", err), progress)
	}
	index := make(map[string]*models.Track, len(library))
	for i := range library {
		index[library[i].ID] = &library[i]
	}

	for step := 1; step <= req.Length; step++ {
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, r, StopCancelled, nil, progress)
		}

		next, source, err := e.nextTrack(ctx, r, current, library, index, step, req.Length, progress)
		if err != nil {
			return e.finish(ctx, r, StopAborted, err, progress)
		}
		if next == nil {
			r.logger.Info("no candidates left", "step", step)
			return e.finish(ctx, r, StopExhausted, nil, progress)
		}

		pick := Pick{
			Step:          step,
			TrackID:       next.track.ID,
			Album:         next.track.Album,
			Distance:      next.Distance,
			Similarity:    next.Similarity,
			HasSimilarity: next.HasSimilarity,
			Source:        source,
		}
		if err := e.appendPick(ctx, r, pick); err != nil {
			return e.finish(ctx, r, StopAborted, err, progress)
		}
		r.result.Steps = step

		switch source {
		case SourceCache:
			r.logger.Info("using cached distance", "id", pick.TrackID, "distance", pick.Distance)
		case SourceScan:
			r.logger.Info("found a close song", "id", pick.TrackID, "distance", pick.Distance)
		default:
			r.logger.Info("no close enough song found, using closest", "id", pick.TrackID, "distance", pick.Distance)
		}
		e.sendProgress(progress, pickUpdate(step, req.Length, pick))

		current = next.track
	}

	return e.finish(ctx, r, StopCompleted, nil, progress)
}

// nextTrack finds the next pick from current. A nil candidate means the pool is exhausted.
func (e *Engine) nextTrack(
	ctx context.Context,
	r *run,
	current *models.Track,
	library []models.Track,
	index map[string]*models.Track,
	step, total int,
	progress chan<- ProgressUpdate,
) (*candidate, Source, error) {
	e.sendProgress(progress, probeUpdate(step, total, current.ID))

	neighbors, err := e.cache.Neighbors(ctx, current.ID, r.exclude)
	if err != nil {
		return nil, "", fmt.Errorf("cache lookup for %s: %w", current.ID, err)
	}

	covered := models.NewIDSet()
	cached := make([]candidate, 0, len(neighbors))
	for _, n := range neighbors {
		t, ok := index[n.ID]
		if !ok || n.ID == current.ID || r.exclude.Has(n.ID) {
			continue
		}
		covered.Add(n.ID)
		cached = append(cached, candidate{track: t, PairResult: n.PairResult})
	}

	if pick := e.selectCached(cached); pick != nil {
		return pick, SourceCache, nil
	}

	// the nearest cached neighbor seeds the fallback
	var closest *candidate
	if len(cached) > 0 {
		closest = &cached[0]
	}

	e.sendProgress(progress, scanUpdate(step, total, len(library)))

	for _, t := range e.scanOrder(library) {
		if t.ID == current.ID || r.exclude.Has(t.ID) || covered.Has(t.ID) {
			continue
		}

		res, err := scoring.Compare(*current, *t, e.opts.Dimensions, e.opts.TolerateZeroVector)
		if err != nil {
			return nil, "", err
		}

		key, err := models.NewPairKey(current.ID, t.ID)
		if err != nil {
			return nil, "", err
		}
		inserted, err := e.cache.Insert(ctx, key, res)
		if err != nil {
			return nil, "", fmt.Errorf("cache insert %s: %w", key, err)
		}
		if !inserted {
			r.logger.Debug("pair already cached", "pair", key.String())
		}

		c := candidate{track: t, PairResult: res}
		if closest == nil || c.Distance < closest.Distance {
			closest = &c
		}
		if e.opts.Accepts(res) {
			return &c, SourceScan, nil
		}
		r.logger.Debug("candidate rejected", "id", t.ID, "distance", res.Distance)
	}

	if closest == nil {
		return nil, "", nil
	}
	return closest, SourceFallback, nil
}

// selectCached applies the selection policy to cached neighbors, closest first.
//
// Best selection takes the closest neighbor that passes both gates, which need not be the nearest one when the
// similarity gate is on.
func (e *Engine) selectCached(cached []candidate) *candidate {
	if len(cached) == 0 {
		return nil
	}

	if e.opts.Selection == SelectBest {
		for i := range cached {
			if e.opts.Accepts(cached[i].PairResult) {
				return &cached[i]
			}
		}
		return nil
	}

	var qualifying []int
	for i := range cached {
		if e.opts.Accepts(cached[i].PairResult) {
			qualifying = append(qualifying, i)
			if len(qualifying) == e.opts.topK() {
				break
			}
		}
	}
	if len(qualifying) == 0 {
		return nil
	}
	return &cached[qualifying[e.rng.Intn(len(qualifying))]]
}

// scanOrder returns pointers into library in the configured order.
func (e *Engine) scanOrder(library []models.Track) []*models.Track {
	order := make([]*models.Track, len(library))
	for i := range library {
		order[i] = &library[i]
	}
	if e.opts.ScanOrder == ScanRandom {
		e.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return order
}
