// Command reelfetch runs the video download bot and its maintenance tools.
//
// `reelfetch serve` starts the long-running server behind the chat
// transport. The remaining commands work directly on the configured cache,
// ledger and scratch directories: `fetch` pushes one link through the same
// request flow the server uses, `stats` prints the usage ledger, and
// `cache list|prune` inspect and trim cached videos.
package main
