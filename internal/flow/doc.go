// Package flow decides what happens to one download request.
//
// The steps run in a fixed order: take a queue slot, check the user's rate
// window, look in the cache, download, enforce the size ceiling, then store
// the file and count the delivery. Each request ends in exactly one Outcome
// and gives its queue slot back exactly once.
//
// Only fresh deliveries are counted in the usage ledger. A file that cannot
// be moved into the cache is still delivered from scratch storage.
package flow
