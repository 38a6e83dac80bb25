// Package models defines the domain entities and collaborator interfaces of blissify.
//
// The package contains two categories of types:
//
// 1. Records: immutable values describing tracks and comparisons
//   - [Track] : a fingerprinted song with its album key
//   - [Features] : named fingerprint components, projected to a vector by [Features.Vector]
//   - [PairKey] : canonical unordered pair of track identifiers
//   - [PairResult] : memoized distance and optional similarity for a pair
//
// 2. Collaborators: interfaces the traversal engine drives
//   - [FingerprintStore] : read access to fingerprints (SQLite in production)
//   - [PairCache] : persistent comparison cache (SQLite or Badger)
//   - [QueueSink] : the live player queue (MPD in production)
package models
