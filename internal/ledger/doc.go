// Package ledger persists usage counters: total downloads, downloads per
// user, and downloads per platform.
//
// The file is a single JSON object with the keys downloads, users and
// platforms. It is rewritten wholesale after every Record. Only fresh
// deliveries are recorded; cache hits are not.
package ledger
