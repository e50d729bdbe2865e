// Package metrics records registry resolution events in Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-registry/framework/container"
)

var _ container.Recorder = (*Recorder)(nil)

// Options configures a Recorder.
type Options struct {
	// Namespace prefixes every metric name. Defaults to "registry".
	Namespace string
	// Runtime adds the Go and process collectors.
	Runtime bool
}

// Recorder is a container.Recorder backed by a private Prometheus registry.
//
//	rec := metrics.New(metrics.Options{Runtime: true})
//	root := container.New(container.WithRecorder(rec))
//	http.Handle("/metrics", rec.Handler())
type Recorder struct {
	registry *prometheus.Registry

	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	constructions *prometheus.CounterVec
	failures      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// New creates a Recorder and registers its collectors.
func New(opts Options) *Recorder {
	ns := opts.Namespace
	if ns == "" {
		ns = "registry"
	}
	labels := []string{"namespace", "service"}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_hits_total",
			Help:      "Resolutions answered from the instance cache.",
		}, labels),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_misses_total",
			Help:      "Resolutions that had to build an instance.",
		}, labels),
		constructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "constructions_total",
			Help:      "Instances built successfully.",
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "construction_failures_total",
			Help:      "Builds that failed or produced an instance violating its declared interface.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "construction_duration_seconds",
			Help:      "Time spent in factories and initializers.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, labels),
	}

	r.registry.MustRegister(r.cacheHits, r.cacheMisses, r.constructions, r.failures, r.duration)
	if opts.Runtime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

func (r *Recorder) CacheHit(namespace, service string) {
	r.cacheHits.WithLabelValues(namespace, service).Inc()
}

func (r *Recorder) CacheMiss(namespace, service string) {
	r.cacheMisses.WithLabelValues(namespace, service).Inc()
}

func (r *Recorder) Constructed(namespace, service string, elapsed time.Duration) {
	r.constructions.WithLabelValues(namespace, service).Inc()
	r.duration.WithLabelValues(namespace, service).Observe(elapsed.Seconds())
}

func (r *Recorder) ConstructionFailed(namespace, service string) {
	r.failures.WithLabelValues(namespace, service).Inc()
}

// Registry exposes the underlying registry, e.g. to add application collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
