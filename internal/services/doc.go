// Package services implements the playback queue collaborators used by playlist generation.
//
// # MPD
//
// [MPDQueue] talks to a Music Player Daemon through [github.com/fhs/gompd/v2/mpd]. Every command goes through a
// [Reconnector], which pings the cached connection and redials a bounded number of times before giving up. Commands are
// never retried, so an Append that failed mid-flight is not duplicated.
//
// Appends may be paced with a token bucket limiter to avoid flooding a slow player.
//
// When the queue is empty, [MPDQueue.SeedID] adds a random file from the player's library and returns it.
//
// # Dry runs
//
// [MemoryQueue] keeps the queue in process memory with the same seeding rules.
//
// # Error Handling
//
// Player failures are wrapped with [shared.ErrQueueUnavailable]; command timeouts carry [shared.ErrTimeout].
package services
