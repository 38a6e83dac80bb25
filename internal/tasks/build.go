package tasks

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/scoring"
)

// BuildStats summarizes a cache warming pass.
type BuildStats struct {
	Tracks    int `json:"tracks"`
	Pairs     int `json:"pairs"`     // unordered pairs in the library
	Skipped   int `json:"skipped"`   // already cached before the pass
	Computed  int `json:"computed"`  // comparisons computed
	Inserted  int `json:"inserted"`  // new cache records
	Conflicts int `json:"conflicts"` // computed but already present on insert
}

type computedPair struct {
	key models.PairKey
	res models.PairResult
}

// BuildCache computes and stores every pair of the library that is not cached yet.
//
// Comparisons run on up to workers goroutines; a single goroutine performs all cache writes.
func (e *Engine) BuildCache(ctx context.Context, workers int, progress chan<- ProgressUpdate) (*BuildStats, error) {
	if workers < 1 {
		workers = 1
	}

	library, err := e.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}

	n := len(library)
	stats := &BuildStats{Tracks: n, Pairs: n * (n - 1) / 2}

	covered := make([]models.IDSet, n)
	for i, t := range library {
		neighbors, err := e.cache.Neighbors(ctx, t.ID, nil)
		if err != nil {
			return nil, fmt.Errorf("cache lookup for %s: %w", t.ID, err)
		}
		covered[i] = models.NewIDSet()
		for _, nb := range neighbors {
			covered[i].Add(nb.ID)
		}
	}

	pending := 0
	for i := range library {
		for j := i + 1; j < n; j++ {
			if covered[i].Has(library[j].ID) {
				stats.Skipped++
			} else {
				pending++
			}
		}
	}
	e.logger.Info("building pair cache", "tracks", n, "cached", stats.Skipped, "pending", pending, "workers", workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	out := make(chan computedPair, workers*4)
	writeErr := make(chan error, 1)

	go func() {
		defer close(writeErr)
		done := 0
		for p := range out {
			inserted, err := e.cache.Insert(ctx, p.key, p.res)
			if err != nil {
				writeErr <- fmt.Errorf("cache insert %s: %w", p.key, err)
				cancel()
				for range out {
				}
				return
			}
			done++
			if inserted {
				stats.Inserted++
			} else {
				stats.Conflicts++
				e.logger.Debug("pair already cached", "pair", p.key.String())
			}
			e.sendProgress(progress, buildUpdate(done, pending, p.key))
		}
	}()

	computed := make([]int, n)
	for i := range library {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			a := library[i]
			for j := i + 1; j < n; j++ {
				b := library[j]
				if covered[i].Has(b.ID) {
					continue
				}

				res, err := scoring.Compare(a, b, e.opts.Dimensions, e.opts.TolerateZeroVector)
				if err != nil {
					return err
				}
				key, err := models.NewPairKey(a.ID, b.ID)
				if err != nil {
					return err
				}
				computed[i]++

				select {
				case out <- computedPair{key: key, res: res}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	err = g.Wait()
	close(out)
	if werr := <-writeErr; werr != nil {
		err = werr
	}

	for _, c := range computed {
		stats.Computed += c
	}
	if err != nil {
		return stats, err
	}

	e.logger.Info("pair cache built", "inserted", stats.Inserted, "conflicts", stats.Conflicts)
	return stats, nil
}
