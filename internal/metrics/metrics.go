package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reelfetch"

// Recorder owns a private registry with the request-flow instruments.
// Every method tolerates a nil receiver so callers that do not care about
// metrics can pass nil.
type Recorder struct {
	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	downloadDuration *prometheus.HistogramVec
	downloadAttempts *prometheus.CounterVec
}

// New registers the Go and process collectors plus the reelfetch instruments.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Download requests by platform and terminal outcome.",
		}, []string{"platform", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		downloadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Wall time spent in platform downloaders.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"platform", "result"}),
		downloadAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_attempts_total",
			Help:      "Individual downloader attempts, retries included.",
		}, []string{"platform"}),
	}
	registry.MustRegister(r.requests, r.cacheLookups, r.downloadDuration, r.downloadAttempts)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WatchQueue publishes depth as reelfetch_queue_depth, sampled at scrape time.
func (r *Recorder) WatchQueue(depth func() int) {
	if r == nil || depth == nil {
		return
	}
	r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Downloads currently holding a queue slot.",
	}, func() float64 { return float64(depth()) }))
}

// ObserveRequest counts one finished request.
func (r *Recorder) ObserveRequest(platform, outcome string) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(platform, outcome).Inc()
}

// ObserveCacheLookup counts a hit or miss.
func (r *Recorder) ObserveCacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveDownload records how long a dispatch took and whether it succeeded.
func (r *Recorder) ObserveDownload(platform string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.downloadDuration.WithLabelValues(platform, result).Observe(elapsed.Seconds())
}

// ObserveAttempt counts one downloader attempt.
func (r *Recorder) ObserveAttempt(platform string) {
	if r == nil {
		return
	}
	r.downloadAttempts.WithLabelValues(platform).Inc()
}

// Handler serves the registry in the Prometheus text or OpenMetrics format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
