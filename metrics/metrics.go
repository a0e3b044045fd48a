// Package metrics exposes the collector's Prometheus counters, grounded in
// aistore's stats/prom.go and stats/common_prom.go, backed by
// github.com/prometheus/client_golang.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every counter/histogram the ingestion pipeline touches.
// A nil *Metrics is safe to use — every method is a no-op — so callers
// that don't care about metrics can pass nil instead of a disabled stub.
type Metrics struct {
	BatchesParsed   prometheus.Counter
	ParseFailures   prometheus.Counter
	BackendsIngested prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	IngestDuration  prometheus.Histogram
}

// New registers the collector's metrics on reg and returns the bundle.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BatchesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mastermind",
			Subsystem: "collector",
			Name:      "batches_parsed_total",
			Help:      "Monitor-stats documents successfully parsed.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mastermind",
			Subsystem: "collector",
			Name:      "parse_failures_total",
			Help:      "Monitor-stats documents discarded as malformed.",
		}),
		BackendsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mastermind",
			Subsystem: "collector",
			Name:      "backends_ingested_total",
			Help:      "BackendStat records merged into the model.",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mastermind",
			Subsystem: "collector",
			Name:      "status_transitions_total",
			Help:      "Entity statuses recorded on each ingest, changed or not, labeled by entity kind and status.",
		}, []string{"kind", "status"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mastermind",
			Subsystem: "collector",
			Name:      "ingest_duration_seconds",
			Help:      "Wall-clock time spent in Storage.Ingest per batch.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.BatchesParsed, m.ParseFailures, m.BackendsIngested, m.StatusTransitions, m.IngestDuration)
	return m
}

// BatchParsed records a successfully parsed document.
func (m *Metrics) BatchParsed() {
	if m != nil {
		m.BatchesParsed.Inc()
	}
}

// ParseFailed records a discarded, malformed document.
func (m *Metrics) ParseFailed() {
	if m != nil {
		m.ParseFailures.Inc()
	}
}

// BackendIngested records one BackendStat merged into the model.
func (m *Metrics) BackendIngested() {
	if m != nil {
		m.BackendsIngested.Inc()
	}
}

// StatusTransition records one observation of an entity of kind (e.g.
// "backend", "fs", "couple") in status. Storage calls it for every touched
// entity on every ingest, whether or not the status changed.
func (m *Metrics) StatusTransition(kind, status string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(kind, status).Inc()
	}
}
