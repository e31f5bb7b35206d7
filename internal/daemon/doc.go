// Package daemon owns the long-running reelfetch process lifecycle.
//
// A Daemon holds a flock-based lock so only one server drives a cache
// directory at a time, then runs the bot API server and the cache sweeper
// side by side until the context ends or one of them fails. Request handling
// lives in flow and botapi; this package only starts, supervises and stops.
package daemon
