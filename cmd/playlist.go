package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/blissify/internal/formatter"
	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/services"
	"github.com/desertthunder/blissify/internal/shared"
	"github.com/desertthunder/blissify/internal/tasks"
)

// PlaylistSongs queues songs one at a time.
func (r *Runner) PlaylistSongs(ctx context.Context, cmd *cli.Command) error {
	return r.runPlaylist(ctx, cmd, tasks.ModeSongs)
}

// PlaylistAlbums queues whole albums.
func (r *Runner) PlaylistAlbums(ctx context.Context, cmd *cli.Command) error {
	return r.runPlaylist(ctx, cmd, tasks.ModeAlbums)
}

// PlaylistHistory lists recent runs.
func (r *Runner) PlaylistHistory(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.runs.List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}
	return formatter.WriteRuns(r.output, runs)
}

// traversalOptions merges the [traversal] section with the flags given for this run.
func (r *Runner) traversalOptions(cmd *cli.Command) (tasks.Options, int, error) {
	opts, err := tasks.OptionsFromConfig(r.config.Traversal)
	if err != nil {
		return opts, 0, err
	}

	length := r.config.Traversal.QueueLength
	if cmd.IsSet("length") {
		length = cmd.Int("length")
	}
	if length < 0 {
		return opts, 0, fmt.Errorf("%w: --length must not be negative", shared.ErrInvalidFlag)
	}

	if cmd.Bool("random") {
		opts.Selection = tasks.SelectRandom
	}
	if cmd.IsSet("top-k") {
		opts.TopK = cmd.Int("top-k")
		if opts.TopK < 1 {
			return opts, 0, fmt.Errorf("%w: --top-k must be positive", shared.ErrInvalidFlag)
		}
	}
	if cmd.IsSet("rng-seed") {
		opts.Seed = int64(cmd.Int("rng-seed"))
	}

	if cmd.IsSet("scan-order") {
		order, err := tasks.ParseScanOrder(cmd.String("scan-order"))
		if err != nil {
			return opts, 0, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		opts.ScanOrder = order
	}
	if cmd.Bool("similarity-gate") {
		opts.SimilarityGate = true
	}
	if cmd.IsSet("distance-threshold") {
		opts.DistanceThreshold = cmd.Float("distance-threshold")
		if opts.DistanceThreshold < 0 {
			return opts, 0, fmt.Errorf("%w: --distance-threshold must not be negative", shared.ErrInvalidFlag)
		}
	}

	return opts, length, nil
}

// openQueue returns the queue a run appends to: the player, or an in-memory queue for dry runs.
func (r *Runner) openQueue(ctx context.Context, st *store, dryRun bool, seed int64) (models.QueueSink, func() error, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	if dryRun {
		library, err := st.songs.ListAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		ids := make([]string, len(library))
		for i, t := range library {
			ids[i] = t.ID
		}
		return services.NewMemoryQueue(nil, ids, rng), func() error { return nil }, nil
	}

	mc := r.config.MPD
	network, addr := mc.Address()
	rc := services.NewReconnector(services.MPDDialer(network, addr, mc.Password), mc.ReconnectAttempts, mc.Timeout(), r.logger)
	queue := services.NewMPDQueue(rc, mc.AppendsPerSecond, rng)

	random, err := queue.RandomEnabled(ctx)
	if err != nil {
		queue.Close()
		return nil, nil, err
	}
	if random {
		r.logger.Warn("random mode is on in MPD, queued songs will not play in order")
	}

	r.logger.Debug("connected to player", "network", network, "addr", addr)
	return queue, queue.Close, nil
}

func (r *Runner) runPlaylist(ctx context.Context, cmd *cli.Command, mode tasks.Mode) error {
	opts, length, err := r.traversalOptions(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	dryRun := cmd.Bool("dry-run")
	useTUI := cmd.Bool("tui")

	if useTUI {
		logPath, err := shared.DataPath("tui.log")
		if err != nil {
			return err
		}
		fileLogger, err := shared.NewFileLogger(logPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		fileLogger.SetLevel(r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	queue, closeQueue, err := r.openQueue(ctx, st, dryRun, opts.Seed)
	if err != nil {
		return err
	}
	defer closeQueue()

	engine := tasks.NewEngine(st.songs, st.cache, queue, opts, r.logger)
	req := tasks.Request{Length: length, SeedID: cmd.String("seed")}
	run := func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.Result, error) {
		if mode == tasks.ModeAlbums {
			return engine.Albums(ctx, req, progress)
		}
		return engine.Songs(ctx, req, progress)
	}

	var (
		result *tasks.Result
		runErr error
	)
	switch {
	case useTUI:
		result, runErr = r.runTUI(ctx, fmt.Sprintf("blissify %s", mode), run)
	case format == formatter.FormatText:
		result, runErr = r.runWithProgress(ctx, run)
	default:
		result, runErr = run(ctx, nil)
	}

	if result == nil {
		return runErr
	}

	// the run context may be cancelled already; history is still recorded
	if err := st.runs.Create(context.WithoutCancel(ctx), result.Run(dryRun)); err != nil {
		r.logger.Warn("failed to record run", "run", result.RunID, "error", err)
	}

	if err := formatter.WriteResult(r.output, result, format); err != nil {
		return err
	}
	if out := cmd.String("output"); out != "" {
		path, err := formatter.WriteResultFile(result, format, out)
		if err != nil {
			return err
		}
		r.logger.Info("result written", "path", path)
	}

	return runErr
}

// runWithProgress runs the traversal while printing each pick as it is queued.
func (r *Runner) runWithProgress(ctx context.Context, run func(context.Context, chan<- tasks.ProgressUpdate) (*tasks.Result, error)) (*tasks.Result, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			switch update.Phase {
			case tasks.SelectSeed:
				r.writePlain("🎵 %s\n", update.Message)
			case tasks.PickTrack:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.Done:
				r.writePlain("\n")
			}
		}
	}()

	result, err := run(ctx, progressCh)
	close(progressCh)
	wg.Wait()
	return result, err
}
