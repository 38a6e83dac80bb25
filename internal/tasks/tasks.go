// package tasks implements playlist generation over the fingerprint store and pair cache.
//
// The core abstraction is Engine, which walks the library greedily from a seed track and appends each pick to a queue.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/blissify/internal/models"
	"github.com/desertthunder/blissify/internal/shared"
)

// Selection chooses among candidates that pass the acceptance thresholds.
type Selection int

const (
	SelectBest   Selection = iota // always take the closest qualifying candidate
	SelectRandom                  // sample uniformly among the TopK closest qualifying candidates
)

func (s Selection) String() string {
	switch s {
	case SelectBest:
		return "best"
	case SelectRandom:
		return "random"
	default:
		return ""
	}
}

// ParseSelection parses "best" or "random".
func ParseSelection(s string) (Selection, error) {
	switch s {
	case "best", "":
		return SelectBest, nil
	case "random":
		return SelectRandom, nil
	default:
		return 0, fmt.Errorf("%w: unknown selection %q", shared.ErrInvalidArgument, s)
	}
}

// ScanOrder is the order in which the full scan visits the library.
type ScanOrder int

const (
	ScanStore  ScanOrder = iota // fingerprint store order
	ScanRandom                  // reshuffled on every step
)

func (o ScanOrder) String() string {
	switch o {
	case ScanStore:
		return "store"
	case ScanRandom:
		return "random"
	default:
		return ""
	}
}

// ParseScanOrder parses "store" or "random".
func ParseScanOrder(s string) (ScanOrder, error) {
	switch s {
	case "store", "":
		return ScanStore, nil
	case "random":
		return ScanRandom, nil
	default:
		return 0, fmt.Errorf("%w: unknown scan order %q", shared.ErrInvalidArgument, s)
	}
}

// Options holds the thresholds and policy knobs of a traversal.
type Options struct {
	DistanceThreshold   float64
	SimilarityThreshold float64
	SimilarityGate      bool // require Similarity > SimilarityThreshold as well
	TolerateZeroVector  bool // store comparisons against zero vectors without similarity instead of failing
	Selection           Selection
	TopK                int
	ScanOrder           ScanOrder
	Dimensions          models.Dimensions
	Seed                int64 // 0 seeds from the clock
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{
		DistanceThreshold:   4.0,
		SimilarityThreshold: 0.95,
		Selection:           SelectBest,
		TopK:                10,
		ScanOrder:           ScanStore,
		Dimensions:          models.Dimensions4,
	}
}

// OptionsFromConfig converts the [traversal] config section.
func OptionsFromConfig(c shared.TraversalConfig) (Options, error) {
	sel, err := ParseSelection(c.Selection)
	if err != nil {
		return Options{}, err
	}
	order, err := ParseScanOrder(c.ScanOrder)
	if err != nil {
		return Options{}, err
	}
	dims := models.Dimensions(c.Features)
	if !dims.Valid() {
		return Options{}, fmt.Errorf("%w: unsupported feature dimensions %d", shared.ErrInvalidConfig, c.Features)
	}

	return Options{
		DistanceThreshold:   c.DistanceThreshold,
		SimilarityThreshold: c.SimilarityThreshold,
		SimilarityGate:      c.SimilarityGate,
		TolerateZeroVector:  c.TolerateZeroVector,
		Selection:           sel,
		TopK:                c.TopK,
		ScanOrder:           order,
		Dimensions:          dims,
		Seed:                c.Seed,
	}, nil
}

// Accepts reports whether a comparison passes the acceptance predicate.
//
// With the similarity gate on, a comparison without similarity passes only when zero vectors are tolerated.
func (o Options) Accepts(r models.PairResult) bool {
	if r.Distance >= o.DistanceThreshold {
		return false
	}
	if !o.SimilarityGate {
		return true
	}
	if !r.HasSimilarity {
		return o.TolerateZeroVector
	}
	return r.Similarity > o.SimilarityThreshold
}

func (o Options) topK() int {
	if o.TopK < 1 {
		return 1
	}
	return o.TopK
}

// Mode names the traversal variant.
type Mode string

const (
	ModeSongs  Mode = "songs"
	ModeAlbums Mode = "albums"
)

// StopReason tells why a run ended.
type StopReason string

const (
	StopCompleted StopReason = "completed" // requested length reached
	StopExhausted StopReason = "exhausted" // no eligible candidate left
	StopCancelled StopReason = "cancelled" // context cancelled between steps
	StopAborted   StopReason = "aborted"   // fatal error; see the returned error
)

// Source tells how a pick was found.
type Source string

const (
	SourceCache    Source = "cache"    // closest qualifying cached neighbor
	SourceScan     Source = "scan"     // first qualifying candidate of the full scan
	SourceFallback Source = "fallback" // closest candidate seen when nothing qualified
	SourceGroup    Source = "group"    // member of the selected album
)

// Pick is one track appended to the queue.
type Pick struct {
	Step          int     `json:"step"`
	TrackID       string  `json:"id"`
	Album         string  `json:"album,omitempty"`
	Distance      float64 `json:"distance"`
	Similarity    float64 `json:"similarity,omitempty"`
	HasSimilarity bool    `json:"has_similarity"`
	Source        Source  `json:"source"`
}

// Result is the outcome of a run. It is returned even when the run aborts, holding the picks made so far.
type Result struct {
	RunID       string     `json:"run_id"`
	Mode        Mode       `json:"mode"`
	Seed        string     `json:"seed"`
	Requested   int        `json:"requested"`
	Steps       int        `json:"steps"`
	Picks       []Pick     `json:"picks"`
	Stop        StopReason `json:"stop"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at"`
}

// IDs returns the picked track ids in queue order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Picks))
	for i, p := range r.Picks {
		ids[i] = p.TrackID
	}
	return ids
}

// Run converts the result into a history record.
func (r *Result) Run(dryRun bool) *models.Run {
	return &models.Run{
		ID:           r.RunID,
		Mode:         string(r.Mode),
		Seed:         r.Seed,
		Requested:    r.Requested,
		Picked:       len(r.Picks),
		StopReason:   string(r.Stop),
		ErrorMessage: r.Error,
		DryRun:       dryRun,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
}

// Request describes one run.
type Request struct {
	Length int    // steps to take; tracks in song mode, albums in album mode
	SeedID string // overrides the queue's seed when set
}

// Engine runs traversals against one store, cache and queue.
//
// An Engine is not safe for concurrent runs.
type Engine struct {
	store  models.FingerprintStore
	cache  models.PairCache
	queue  models.QueueSink
	opts   Options
	rng    *rand.Rand
	logger *log.Logger
}

// NewEngine creates a new Engine with the provided collaborators.
func NewEngine(store models.FingerprintStore, cache models.PairCache, queue models.QueueSink, opts Options, logger *log.Logger) *Engine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		store:  store,
		cache:  cache,
		queue:  queue,
		opts:   opts,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}
}

// Options returns the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
