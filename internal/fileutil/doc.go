// Package fileutil holds the small filesystem primitives the cache and the
// usage ledger rely on: ownership-transferring moves, atomic replace writes,
// and verified copies for exporting delivered files.
package fileutil
