package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// Metrics bundles the Prometheus collectors for a lookup service on a
// private registry, so tests and embedding applications never collide
// on the global one.
type Metrics struct {
	registry *prometheus.Registry

	// lookups counts finished lookups.
	// Labels: direction (analyse, generate), outcome (ok, truncated, error)
	lookups *prometheus.CounterVec

	// duration measures wall time per lookup.
	// Labels: direction
	duration *prometheus.HistogramVec

	// results tracks the distribution of result-set sizes.
	results prometheus.Histogram

	// steps tracks the distribution of traversal steps per lookup.
	steps prometheus.Histogram

	// cacheOps counts cache operations.
	// Labels: op (get, set, delete), result (hit, miss, ok, error)
	cacheOps *prometheus.CounterVec

	// info carries the loaded transducers as labels.
	// Labels: role, source, fingerprint, weighted
	info *prometheus.GaugeVec
}

// NewMetrics creates the collector bundle with the standard process and
// Go runtime collectors alongside the lookup ones.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hfstol",
			Name:      "lookups_total",
			Help:      "Total finished lookups by direction and outcome",
		}, []string{"direction", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hfstol",
			Name:      "lookup_duration_seconds",
			Help:      "Lookup wall time in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"direction"}),
		results: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hfstol",
			Name:      "lookup_results",
			Help:      "Distribution of result-set sizes",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50},
		}),
		steps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hfstol",
			Name:      "lookup_steps",
			Help:      "Distribution of traversal steps per lookup",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		cacheOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hfstol",
			Name:      "cache_requests_total",
			Help:      "Total analysis cache operations by result",
		}, []string{"op", "result"}),
		info: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hfstol",
			Name:      "transducer_info",
			Help:      "Loaded transducers, value fixed at 1",
		}, []string{"role", "source", "fingerprint", "weighted"}),
	}
}

// Hooks returns lifecycle hooks that record every finished lookup.
// Merge them with any other hooks the caller installs.
func (m *Metrics) Hooks() fst.LifecycleHooks {
	return fst.LifecycleHooks{
		OnLookupDone: func(ctx context.Context, ev fst.LookupEvent) {
			outcome := "ok"
			switch {
			case ev.Truncated:
				outcome = "truncated"
			case ev.Err != nil:
				outcome = "error"
			}
			m.lookups.WithLabelValues(ev.Direction, outcome).Inc()
			m.duration.WithLabelValues(ev.Direction).Observe(ev.Duration.Seconds())
			m.results.Observe(float64(ev.Results))
			m.steps.Observe(float64(ev.Steps))
		},
	}
}

// SetTransducerInfo publishes one loaded transducer on the info gauge.
// Earlier series for the same role are dropped, so hot reloads do not
// leave stale fingerprints behind.
func (m *Metrics) SetTransducerInfo(role, source, fingerprint string, weighted bool) {
	m.info.DeletePartialMatch(prometheus.Labels{"role": role})
	m.info.WithLabelValues(role, source, fingerprint, strconv.FormatBool(weighted)).Set(1)
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry so embedding applications
// can register their own collectors next to ours.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
