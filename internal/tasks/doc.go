// Package tasks implements playlist generation as a greedy nearest-neighbor walk.
//
// # Song mode
//
// [Engine.Songs] starts from a seed track and, for each step:
//  1. probes the pair cache for neighbors of the current track that are not queued yet
//  2. accepts the closest one that passes the thresholds (or samples among the top K under random selection)
//  3. otherwise scans the library, computing and caching each missing comparison, and stops at the first
//     candidate that passes
//  4. otherwise takes the closest candidate seen, including the nearest cached one
//
// A candidate passes when distance < DistanceThreshold and, with the similarity gate on,
// similarity > SimilarityThreshold.
//
// # Album mode
//
// [Engine.Albums] compares albums by the distance between their mean fingerprints and appends every track of the
// chosen album. It does not use the pair cache.
//
// # Results
//
// Both modes return a [Result] even on failure. [Result.Stop] distinguishes completion, exhaustion of candidates,
// cancellation between steps, and aborts; only aborts come with a non-nil error.
//
// # Cache warming
//
// [Engine.BuildCache] fills the pair cache for the whole library ahead of time.
package tasks
