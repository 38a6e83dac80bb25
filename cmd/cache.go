package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/blissify/internal/formatter"
	"github.com/desertthunder/blissify/internal/shared"
	"github.com/desertthunder/blissify/internal/tasks"
)

// buildReportEvery is how many stored pairs pass between progress lines of cache build.
const buildReportEvery = 500

// CacheBuild computes and stores every pair of the library that is not cached yet.
func (r *Runner) CacheBuild(ctx context.Context, cmd *cli.Command) error {
	opts, err := tasks.OptionsFromConfig(r.config.Traversal)
	if err != nil {
		return err
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := tasks.NewEngine(st.songs, st.cache, nil, opts, r.logger)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase == tasks.BuildPairs && (update.Step%buildReportEvery == 0 || update.Step == update.Total) {
				r.writePlain("   %d/%d pairs stored\n", update.Step, update.Total)
			}
		}
	}()

	stats, err := engine.BuildCache(ctx, cmd.Int("workers"), progressCh)
	close(progressCh)
	<-done

	if stats != nil {
		r.writePlainHeader("Pair cache")
		if werr := formatter.WriteBuildStats(r.output, stats); werr != nil {
			return werr
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			r.logger.Warn("cache build interrupted, stored pairs are kept")
			return nil
		}
		return fmt.Errorf("cache build failed: %w", err)
	}
	return nil
}

type cacheStats struct {
	Backend string `json:"backend"`
	Songs   int    `json:"songs"`
	Pairs   int    `json:"pairs"`
	Errors  int    `json:"errors"`
}

// CacheStats prints the number of songs and cached pairs.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats := cacheStats{Backend: r.config.Cache.Backend}
	if stats.Songs, err = st.songs.Count(ctx); err != nil {
		return err
	}
	if stats.Pairs, err = st.cache.Count(ctx); err != nil {
		return err
	}
	errs, err := st.songs.ListErrors(ctx)
	if err != nil {
		return err
	}
	stats.Errors = len(errs)

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	possible := stats.Songs * (stats.Songs - 1) / 2
	r.writePlain("Backend: %s\n", stats.Backend)
	r.writePlain("Songs: %d\n", stats.Songs)
	r.writePlain("Cached pairs: %d of %d\n", stats.Pairs, max(possible, 0))
	r.writePlain("Analysis errors: %d\n", stats.Errors)
	return nil
}

// CacheNeighbors prints the cached neighbors of one song, closest first.
func (r *Runner) CacheNeighbors(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.songs.Get(ctx, id); err != nil {
		return err
	}

	neighbors, err := st.cache.Neighbors(ctx, id, nil)
	if err != nil {
		return err
	}
	if limit := cmd.Int("limit"); limit > 0 && len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}

	return formatter.WriteNeighbors(r.output, id, neighbors)
}
