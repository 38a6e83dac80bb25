package tasks

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/scoring"
	"github.com/desertthunder/blissify/internal/shared"
	tu "github.com/desertthunder/blissify/internal/testing"
)

func track(id string, tempo float64) models.Track {
	return models.Track{ID: id, Features: models.Features{Tempo: tempo, Amplitude: 0.5, Frequency: 50, Attack: 0.1}}
}

func albumTrack(id, album string, tempo float64) models.Track {
	t := track(id, tempo)
	t.Album = album
	return t
}

func newEngine(store models.FingerprintStore, cache models.PairCache, queue models.QueueSink, opts Options) *Engine {
	return NewEngine(store, cache, queue, opts, shared.NewLogger(io.Discard))
}

func seededQueue(seed string, queued ...string) *tu.ScriptedQueue {
	q := tu.NewScriptedQueue(queued...)
	q.Seed = seed
	return q
}

func cachePair(t *testing.T, cache *tu.MemoryCache, a, b string, d float64) {
	t.Helper()
	key, err := models.NewPairKey(a, b)
	require.NoError(t, err)
	_, err = cache.Insert(context.Background(), key, models.PairResult{Distance: d, Similarity: 1, HasSimilarity: true})
	require.NoError(t, err)
}

func cacheResult(t *testing.T, cache *tu.MemoryCache, a, b string, res models.PairResult) {
	t.Helper()
	key, err := models.NewPairKey(a, b)
	require.NoError(t, err)
	_, err = cache.Insert(context.Background(), key, res)
	require.NoError(t, err)
}

func TestOptionsAccepts(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name     string
		gate     bool
		tolerate bool
		res      models.PairResult
		expected bool
	}{
		{"below distance threshold", false, false, models.PairResult{Distance: 3.9}, true},
		{"at distance threshold", false, false, models.PairResult{Distance: 4.0}, false},
		{"above distance threshold", false, false, models.PairResult{Distance: 4.1}, false},
		{"gate passes", true, false, models.PairResult{Distance: 1, Similarity: 0.99, HasSimilarity: true}, true},
		{"gate rejects low similarity", true, false, models.PairResult{Distance: 1, Similarity: 0.5, HasSimilarity: true}, false},
		{"gate rejects missing similarity", true, false, models.PairResult{Distance: 1}, false},
		{"gate tolerates missing similarity", true, true, models.PairResult{Distance: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := opts
			o.SimilarityGate = tt.gate
			o.TolerateZeroVector = tt.tolerate
			assert.Equal(t, tt.expected, o.Accepts(tt.res))
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := shared.DefaultConfig()

	opts, err := OptionsFromConfig(cfg.Traversal)
	require.NoError(t, err)
	assert.Equal(t, 4.0, opts.DistanceThreshold)
	assert.Equal(t, 0.95, opts.SimilarityThreshold)
	assert.Equal(t, SelectBest, opts.Selection)
	assert.Equal(t, ScanStore, opts.ScanOrder)
	assert.Equal(t, models.Dimensions4, opts.Dimensions)
	assert.Equal(t, 10, opts.TopK)

	cfg.Traversal.Selection = "sometimes"
	_, err = OptionsFromConfig(cfg.Traversal)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestSongs(t *testing.T) {
	ctx := context.Background()
	s1, s2, s3 := track("S1", 100), track("S2", 101), track("S3", 200)

	t.Run("picks close track and caches one pair", func(t *testing.T) {
		cache := tu.NewMemoryCache()
		queue := seededQueue("S1")
		engine := newEngine(tu.NewMemoryStore(s1, s2, s3), cache, queue, DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)

		assert.Equal(t, StopCompleted, res.Stop)
		assert.Equal(t, []string{"S2"}, res.IDs())
		assert.Equal(t, []string{"S2"}, queue.Appended)
		assert.Equal(t, SourceScan, res.Picks[0].Source)
		assert.InDelta(t, 1.0, res.Picks[0].Distance, 1e-9)

		n, _ := cache.Count(ctx)
		assert.Equal(t, 1, n)
		_, ok := cache.Get("S2", "S1")
		assert.True(t, ok)
	})

	t.Run("queued track is never offered", func(t *testing.T) {
		cache := tu.NewMemoryCache()
		queue := seededQueue("S1", "S2")
		engine := newEngine(tu.NewMemoryStore(s1, s2, s3), cache, queue, DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"S3"}, res.IDs())
		assert.Equal(t, SourceFallback, res.Picks[0].Source)
		_, ok := cache.Get("S1", "S2")
		assert.False(t, ok, "queued track should not be compared")
	})

	t.Run("exhaustion is not an error", func(t *testing.T) {
		queue := seededQueue("A", "A", "B")
		engine := newEngine(tu.NewMemoryStore(track("A", 1), track("B", 2)), tu.NewMemoryCache(), queue, DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 5}, nil)
		require.NoError(t, err)

		assert.Equal(t, StopExhausted, res.Stop)
		assert.Empty(t, res.Picks)
		assert.Empty(t, queue.Appended)
	})

	t.Run("threshold gate", func(t *testing.T) {
		near := newEngine(tu.NewMemoryStore(s1, track("near", 103.9)), tu.NewMemoryCache(), seededQueue("S1"), DefaultOptions())
		res, err := near.Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, SourceScan, res.Picks[0].Source)

		far := newEngine(tu.NewMemoryStore(s1, track("far", 104.1)), tu.NewMemoryCache(), seededQueue("S1"), DefaultOptions())
		res, err = far.Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, "far", res.Picks[0].TrackID)
		assert.Equal(t, SourceFallback, res.Picks[0].Source)
	})

	t.Run("scan stops at first qualifying candidate", func(t *testing.T) {
		cache := tu.NewMemoryCache()
		store := tu.NewMemoryStore(s1, track("A", 103), track("B", 101))
		engine := newEngine(store, cache, seededQueue("S1"), DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"A"}, res.IDs())
		_, ok := cache.Get("S1", "B")
		assert.False(t, ok, "scan should stop before B")
	})

	t.Run("cached neighbor is used without scanning", func(t *testing.T) {
		cache := tu.NewMemoryCache()
		cachePair(t, cache, "S1", "S3", 0.5)
		engine := newEngine(tu.NewMemoryStore(s1, s2, s3), cache, seededQueue("S1"), DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"S3"}, res.IDs())
		assert.Equal(t, SourceCache, res.Picks[0].Source)
		assert.Equal(t, 1, cache.Inserts)
	})

	t.Run("scan skips cached neighbors", func(t *testing.T) {
		cache := tu.NewMemoryCache()
		cachePair(t, cache, "S1", "S3", 100)
		engine := newEngine(tu.NewMemoryStore(s1, s3, s2), cache, seededQueue("S1"), DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"S2"}, res.IDs())
		assert.Equal(t, 2, cache.Inserts)
	})

	t.Run("nearest cached neighbor seeds fallback", func(t *testing.T) {
		cache := tu.NewMemoryCache()
		cachePair(t, cache, "S1", "S3", 5)
		store := tu.NewMemoryStore(s1, s3, track("S4", 110))
		engine := newEngine(store, cache, seededQueue("S1"), DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"S3"}, res.IDs())
		assert.Equal(t, SourceFallback, res.Picks[0].Source)
		assert.Equal(t, 5.0, res.Picks[0].Distance)
	})

	t.Run("similarity gate looks past nearest cached neighbor", func(t *testing.T) {
		cache := tu.NewMemoryCache()
		cacheResult(t, cache, "C", "X", models.PairResult{Distance: 1, Similarity: 0.5, HasSimilarity: true})
		cacheResult(t, cache, "C", "Y", models.PairResult{Distance: 2, Similarity: 0.99, HasSimilarity: true})
		store := tu.NewMemoryStore(track("C", 100), track("X", 101), track("Y", 102), track("Z", 300))

		opts := DefaultOptions()
		opts.SimilarityGate = true
		res, err := newEngine(store, cache, seededQueue("C"), opts).Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)

		require.Len(t, res.Picks, 1)
		assert.Equal(t, "Y", res.Picks[0].TrackID)
		assert.Equal(t, SourceCache, res.Picks[0].Source)
		assert.Equal(t, 2.0, res.Picks[0].Distance)
		assert.Equal(t, 2, cache.Inserts, "no scan when a cached neighbor qualifies")
	})

	t.Run("random scan order short-circuits", func(t *testing.T) {
		store := tu.NewMemoryStore(
			track("s", 100), track("q", 100.5),
			track("c1", 101), track("c2", 101.5), track("c3", 102), track("c4", 102.5), track("c5", 103),
		)
		opts := DefaultOptions()
		opts.ScanOrder = ScanRandom
		opts.Seed = 7

		run := func() (*Result, *tu.MemoryCache) {
			cache := tu.NewMemoryCache()
			res, err := newEngine(store, cache, seededQueue("s", "q"), opts).Songs(ctx, Request{Length: 1}, nil)
			require.NoError(t, err)
			return res, cache
		}

		res, cache := run()
		require.Len(t, res.Picks, 1)
		pick := res.Picks[0]
		assert.Contains(t, []string{"c1", "c2", "c3", "c4", "c5"}, pick.TrackID)
		assert.Equal(t, SourceScan, pick.Source)
		assert.Equal(t, 1, cache.Inserts, "every candidate qualifies, so the first compared is taken")

		again, _ := run()
		assert.Equal(t, res.IDs(), again.IDs())
	})

	t.Run("random scan order never offers current or queued tracks", func(t *testing.T) {
		store := tu.NewMemoryStore(
			track("s", 100), track("q", 100.5),
			track("c1", 101), track("c2", 101.5), track("c3", 102), track("c4", 102.5), track("c5", 103),
		)
		opts := DefaultOptions()
		opts.ScanOrder = ScanRandom
		opts.Seed = 11

		res, err := newEngine(store, tu.NewMemoryCache(), seededQueue("s", "q"), opts).Songs(ctx, Request{Length: 10}, nil)
		require.NoError(t, err)

		assert.Equal(t, StopExhausted, res.Stop)
		assert.ElementsMatch(t, []string{"c1", "c2", "c3", "c4", "c5"}, res.IDs())
		assert.NotContains(t, res.IDs(), "s")
		assert.NotContains(t, res.IDs(), "q")
	})

	t.Run("random selection stays within top k", func(t *testing.T) {
		tracks := []models.Track{track("s", 100)}
		ids := make([]string, 12)
		for i := range ids {
			ids[i] = fmt.Sprintf("c%02d", i+1)
			tracks = append(tracks, track(ids[i], 100+float64(i+1)*0.1))
		}
		store := tu.NewMemoryStore(tracks...)

		opts := DefaultOptions()
		opts.Selection = SelectRandom
		opts.TopK = 3

		picked := models.NewIDSet()
		for seed := int64(1); seed <= 50; seed++ {
			cache := tu.NewMemoryCache()
			for i, id := range ids {
				cachePair(t, cache, "s", id, float64(i+1)*0.1)
			}
			opts.Seed = seed

			res, err := newEngine(store, cache, seededQueue("s"), opts).Songs(ctx, Request{Length: 1}, nil)
			require.NoError(t, err)
			require.Len(t, res.Picks, 1)
			assert.Equal(t, SourceCache, res.Picks[0].Source)
			assert.Contains(t, []string{"c01", "c02", "c03"}, res.Picks[0].TrackID)
			picked.Add(res.Picks[0].TrackID)
		}
		assert.Greater(t, len(picked), 1, "random selection should vary with the seed")
	})

	t.Run("no duplicates and no self picks", func(t *testing.T) {
		store := tu.NewMemoryStore(
			track("t0", 100), track("t1", 101), track("t2", 102),
			track("t3", 103), track("t4", 104), track("t5", 105),
		)
		queue := seededQueue("t0", "t0")
		engine := newEngine(store, tu.NewMemoryCache(), queue, DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 10}, nil)
		require.NoError(t, err)

		assert.Equal(t, StopExhausted, res.Stop)
		assert.Equal(t, []string{"t1", "t2", "t3", "t4", "t5"}, res.IDs())

		seen := models.NewIDSet("t0")
		for _, id := range res.IDs() {
			assert.False(t, seen.Has(id), "duplicate pick %s", id)
			seen.Add(id)
		}
	})

	t.Run("similarity gate", func(t *testing.T) {
		seed := models.Track{ID: "x", Features: models.Features{Tempo: 1}}
		orth := models.Track{ID: "y", Features: models.Features{Amplitude: 1}}

		opts := DefaultOptions()
		res, err := newEngine(tu.NewMemoryStore(seed, orth), tu.NewMemoryCache(), seededQueue("x"), opts).
			Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, SourceScan, res.Picks[0].Source)

		opts.SimilarityGate = true
		res, err = newEngine(tu.NewMemoryStore(seed, orth), tu.NewMemoryCache(), seededQueue("x"), opts).
			Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, res.Picks[0].Source)
	})

	t.Run("zero vector", func(t *testing.T) {
		zero := models.Track{ID: "z"}
		other := models.Track{ID: "o", Features: models.Features{Tempo: 1, Amplitude: 1, Frequency: 1, Attack: 1}}

		res, err := newEngine(tu.NewMemoryStore(zero, other), tu.NewMemoryCache(), seededQueue("z"), DefaultOptions()).
			Songs(ctx, Request{Length: 1}, nil)
		require.ErrorIs(t, err, scoring.ErrZeroVector)
		assert.Equal(t, StopAborted, res.Stop)

		opts := DefaultOptions()
		opts.TolerateZeroVector = true
		cache := tu.NewMemoryCache()
		res, err = newEngine(tu.NewMemoryStore(zero, other), cache, seededQueue("z"), opts).
			Songs(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"o"}, res.IDs())
		assert.False(t, res.Picks[0].HasSimilarity)

		stored, ok := cache.Get("z", "o")
		require.True(t, ok)
		assert.False(t, stored.HasSimilarity)
	})

	t.Run("append failure keeps partial result", func(t *testing.T) {
		queue := seededQueue("t0")
		queue.FailAfter = 1
		store := tu.NewMemoryStore(track("t0", 100), track("t1", 101), track("t2", 102), track("t3", 103))
		engine := newEngine(store, tu.NewMemoryCache(), queue, DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 3}, nil)
		require.ErrorIs(t, err, shared.ErrQueueUnavailable)

		require.NotNil(t, res)
		assert.Equal(t, StopAborted, res.Stop)
		assert.Equal(t, []string{"t1"}, res.IDs())
		assert.NotEmpty(t, res.Error)
	})

	t.Run("cancellation stops between steps", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		queue := seededQueue("t0")
		queue.OnAppend = func(string) { cancel() }
		store := tu.NewMemoryStore(track("t0", 100), track("t1", 101), track("t2", 102))
		engine := newEngine(store, tu.NewMemoryCache(), queue, DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 2}, nil)
		require.NoError(t, err)

		assert.Equal(t, StopCancelled, res.Stop)
		assert.Equal(t, []string{"t1"}, res.IDs())
	})

	t.Run("cancellation while reading the seed", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		queue := seededQueue("t0")
		queue.SeedErr = fmt.Errorf("%w: playlistinfo: %w", shared.ErrQueueUnavailable, context.Canceled)
		engine := newEngine(tu.NewMemoryStore(track("t0", 100), track("t1", 101)), tu.NewMemoryCache(), queue, DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 2}, nil)
		require.NoError(t, err)
		assert.Equal(t, StopCancelled, res.Stop)
		assert.Empty(t, res.Picks)
		assert.Empty(t, res.Error)
	})

	t.Run("unknown seed", func(t *testing.T) {
		engine := newEngine(tu.NewMemoryStore(s1), tu.NewMemoryCache(), seededQueue("missing"), DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 1}, nil)
		require.ErrorIs(t, err, shared.ErrTrackNotFound)
		assert.Equal(t, StopAborted, res.Stop)
		assert.Empty(t, res.Picks)
	})

	t.Run("seed override", func(t *testing.T) {
		queue := seededQueue("S3", "S3")
		engine := newEngine(tu.NewMemoryStore(s1, s2, s3), tu.NewMemoryCache(), queue, DefaultOptions())

		res, err := engine.Songs(ctx, Request{Length: 1, SeedID: "S1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "S1", res.Seed)
		assert.Equal(t, []string{"S2"}, res.IDs())
	})

	t.Run("random selection is reproducible", func(t *testing.T) {
		store := tu.NewMemoryStore(track("s", 100), track("c1", 100.5), track("c2", 101), track("c3", 101.5), track("c4", 102))
		opts := DefaultOptions()
		opts.Selection = SelectRandom
		opts.Seed = 42

		run := func() string {
			cache := tu.NewMemoryCache()
			for i, id := range []string{"c1", "c2", "c3", "c4"} {
				cachePair(t, cache, "s", id, float64(i+1)*0.5)
			}
			res, err := newEngine(store, cache, seededQueue("s"), opts).Songs(ctx, Request{Length: 1}, nil)
			require.NoError(t, err)
			require.Len(t, res.Picks, 1)
			assert.Equal(t, SourceCache, res.Picks[0].Source)
			return res.Picks[0].TrackID
		}

		first := run()
		assert.Contains(t, []string{"c1", "c2", "c3", "c4"}, first)
		assert.Equal(t, first, run())
	})

	t.Run("progress reports picks and completion", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 32)
		engine := newEngine(tu.NewMemoryStore(s1, s2, s3), tu.NewMemoryCache(), seededQueue("S1"), DefaultOptions())

		_, err := engine.Songs(ctx, Request{Length: 2}, progress)
		require.NoError(t, err)
		close(progress)

		var picks int
		var last ProgressUpdate
		for u := range progress {
			if u.Phase == PickTrack {
				picks++
			}
			last = u
		}
		assert.Equal(t, 2, picks)
		assert.Equal(t, Done, last.Phase)
		assert.IsType(t, &Result{}, last.Data)
	})
}

func TestAlbums(t *testing.T) {
	ctx := context.Background()
	store := tu.NewMemoryStore(
		albumTrack("a1", "A", 100),
		albumTrack("a2", "A", 102),
		albumTrack("b1", "B", 110),
		albumTrack("b2", "B", 112),
		albumTrack("c1", "C", 200),
		albumTrack("loose", "", 190),
	)

	t.Run("walks albums by mean distance", func(t *testing.T) {
		queue := seededQueue("a1", "a1")
		engine := newEngine(store, tu.NewMemoryCache(), queue, DefaultOptions())

		res, err := engine.Albums(ctx, Request{Length: 2}, nil)
		require.NoError(t, err)

		assert.Equal(t, StopCompleted, res.Stop)
		assert.Equal(t, 2, res.Steps)
		assert.Equal(t, []string{"b1", "b2", "c1"}, res.IDs())
		assert.InDelta(t, 10.0, res.Picks[0].Distance, 1e-9)
		assert.Equal(t, SourceGroup, res.Picks[0].Source)
	})

	t.Run("exhausts when albums run out", func(t *testing.T) {
		engine := newEngine(store, tu.NewMemoryCache(), seededQueue("a1", "a1"), DefaultOptions())

		res, err := engine.Albums(ctx, Request{Length: 5}, nil)
		require.NoError(t, err)

		assert.Equal(t, StopExhausted, res.Stop)
		assert.Equal(t, 2, res.Steps)
		assert.NotContains(t, res.IDs(), "loose", "tracks without an album are never a candidate group")
	})

	t.Run("track without album is its own group", func(t *testing.T) {
		engine := newEngine(store, tu.NewMemoryCache(), seededQueue("loose", "loose"), DefaultOptions())

		res, err := engine.Albums(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"c1"}, res.IDs())
	})

	t.Run("skips album whose first track is queued", func(t *testing.T) {
		engine := newEngine(store, tu.NewMemoryCache(), seededQueue("a1", "b1", "a1"), DefaultOptions())

		res, err := engine.Albums(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"c1"}, res.IDs())
	})

	t.Run("does not touch the pair cache", func(t *testing.T) {
		cache := tu.NewMemoryCache()
		engine := newEngine(store, cache, seededQueue("a1", "a1"), DefaultOptions())

		_, err := engine.Albums(ctx, Request{Length: 2}, nil)
		require.NoError(t, err)
		assert.Zero(t, cache.Inserts)
	})

	t.Run("random selection stays within ranked albums", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Selection = SelectRandom
		opts.Seed = 7
		engine := newEngine(store, tu.NewMemoryCache(), seededQueue("a1", "a1"), opts)

		res, err := engine.Albums(ctx, Request{Length: 1}, nil)
		require.NoError(t, err)
		require.NotEmpty(t, res.Picks)
		assert.Contains(t, []string{"B", "C"}, res.Picks[0].Album)
	})
}

func TestBuildCache(t *testing.T) {
	ctx := context.Background()
	store := tu.NewMemoryStore(track("a", 100), track("b", 101), track("c", 102), track("d", 103))

	cache := tu.NewMemoryCache()
	cachePair(t, cache, "a", "c", 2)
	engine := newEngine(store, cache, nil, DefaultOptions())

	stats, err := engine.BuildCache(ctx, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Tracks)
	assert.Equal(t, 6, stats.Pairs)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 5, stats.Computed)
	assert.Equal(t, 5, stats.Inserted)
	assert.Zero(t, stats.Conflicts)

	n, _ := cache.Count(ctx)
	assert.Equal(t, 6, n)

	stored, ok := cache.Get("c", "a")
	require.True(t, ok)
	assert.Equal(t, 2.0, stored.Distance, "existing pair must not be overwritten")

	stats, err = engine.BuildCache(ctx, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Skipped)
	assert.Zero(t, stats.Computed)
}

func TestResultRun(t *testing.T) {
	res := &Result{RunID: "r", Mode: ModeSongs, Seed: "s", Requested: 3, Picks: []Pick{{TrackID: "x"}}, Stop: StopExhausted}

	run := res.Run(true)
	assert.Equal(t, "songs", run.Mode)
	assert.Equal(t, 1, run.Picked)
	assert.Equal(t, "exhausted", run.StopReason)
	assert.True(t, run.DryRun)
}
