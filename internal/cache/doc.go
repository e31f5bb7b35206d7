// Package cache provides the content-addressed media cache.
//
// Each source URL maps to <xxhash64>.mp4 under the cache directory. Freshness
// is judged from the file mtime alone: an entry older than the TTL is treated
// as absent by Lookup and is overwritten by the next Store for the same URL.
// Store moves the downloaded file into place rather than copying it, so the
// caller gives up its scratch path on success.
//
// Stale files are never read. They are removed lazily by overwriting, or
// eagerly by Prune and the optional Sweeper.
package cache
