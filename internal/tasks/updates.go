package tasks

import (
	"fmt"

	"github.com/desertthunder/blissify/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Pick for PickTrack, *Result for Done
}

// Operation phase enumeration
type Phase int

const (
	SelectSeed Phase = iota
	ProbeCache
	ScanLibrary
	RankGroups
	PickTrack
	BuildPairs
	Done
)

func (p Phase) String() string {
	switch p {
	case SelectSeed:
		return "select_seed"
	case ProbeCache:
		return "probe_cache"
	case ScanLibrary:
		return "scan_library"
	case RankGroups:
		return "rank_groups"
	case PickTrack:
		return "pick_track"
	case BuildPairs:
		return "build_pairs"
	case Done:
		return "done"
	default:
		return ""
	}
}

func seedUpdate(override string) ProgressUpdate {
	msg := "Reading seed from queue..."
	if override != "" {
		msg = fmt.Sprintf("Starting from %s...", override)
	}
	return ProgressUpdate{Phase: SelectSeed, Step: 0, Total: 1, Message: msg}
}

func probeUpdate(step, total int, current string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProbeCache,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Looking up cached neighbors of %s...", current),
	}
}

func scanUpdate(step, total, library int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanLibrary,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Scanning %d tracks...", library),
	}
}

func groupsUpdate(step, total int, current string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RankGroups,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Ranking albums against %q...", current),
	}
}

func pickUpdate(step, total int, pick Pick) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PickTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Queued %s (%s, %.3f)", pick.TrackID, pick.Source, pick.Distance),
		Data:    pick,
	}
}

func buildUpdate(step, total int, key models.PairKey) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildPairs,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Cached %s", key),
	}
}

func doneUpdate(res *Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    len(res.Picks),
		Total:   res.Requested,
		Message: fmt.Sprintf("Finished: %s", res.Stop),
		Data:    res,
	}
}
