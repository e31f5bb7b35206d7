// Package metrics exposes request outcomes, cache efficiency, queue depth and
// downloader timings through a Prometheus registry.
package metrics
