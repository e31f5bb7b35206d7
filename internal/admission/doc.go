// Package admission implements the two gates a request passes before any
// download starts: a fixed-capacity Gate that bounds in-flight work, and a
// per-user sliding-window Limiter.
//
// Both keep their state behind a mutex scoped to a single check-and-mutate
// step. A Gate Slot releases exactly once, so callers can defer Release on
// every path without risking a double decrement.
package admission
