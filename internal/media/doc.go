// Package media holds the request vocabulary shared by every component:
// supported platforms, quality tiers and their resolution mapping, and URL
// normalization.
//
// NormalizeURL is the single source of truth for what counts as "the same
// link". The cache hashes its output, so any change here invalidates
// existing cache keys.
package media
