// Package repositories implements persistence for fingerprints, the pair cache and run history.
//
// Key Implementations:
//   - [SongRepository] : Fingerprint store over the songs table, addressed by filename, with analyzer import
//   - [DistanceRepository] : SQLite pair cache sharing the fingerprint database
//   - [BadgerPairCache] : BadgerDB pair cache with a per-endpoint neighbor index
//   - [RunRepository] : History of generated playlists
//
// Both pair caches are idempotent on insert: a pair already present in either orientation is reported as not
// inserted and is never overwritten. [ErrAlreadyCached] is the internal signal for that case.
package repositories
