package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dusk-indust/archgraph/internal/graph"
)

// Metrics records rebuild and viewer activity on its own registry. It
// implements builder.Observer.
type Metrics struct {
	registry *prometheus.Registry

	buildDuration *prometheus.HistogramVec
	discarded     prometheus.Counter
	files         *prometheus.GaugeVec
	edges         prometheus.Gauge
	wsClients     prometheus.Gauge
}

// NewMetrics registers the archgraph collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		// buildDuration measures full rebuilds.
		// Labels: status (success, error)
		buildDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "archgraph",
			Subsystem: "build",
			Name:      "duration_seconds",
			Help:      "Graph rebuild latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"status"}),

		discarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "archgraph",
			Subsystem: "build",
			Name:      "discarded_total",
			Help:      "Rebuilds whose result was superseded by a newer one",
		}),

		// files counts nodes of the latest build.
		// Labels: status (added, removed, modified, unchanged)
		files: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "archgraph",
			Subsystem: "graph",
			Name:      "files",
			Help:      "Files in the latest built graph by change status",
		}, []string{"status"}),

		edges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "archgraph",
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Import edges in the latest built graph",
		}),

		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "archgraph",
			Subsystem: "viewer",
			Name:      "websocket_clients",
			Help:      "Connected live-update clients",
		}),
	}
}

// ObserveBuild records one finished rebuild.
func (m *Metrics) ObserveBuild(d time.Duration, snap *graph.Snapshot, err error) {
	if err != nil {
		m.buildDuration.WithLabelValues("error").Observe(d.Seconds())
		return
	}
	m.buildDuration.WithLabelValues("success").Observe(d.Seconds())

	counts := map[graph.ChangeStatus]int{
		graph.StatusAdded:     0,
		graph.StatusRemoved:   0,
		graph.StatusModified:  0,
		graph.StatusUnchanged: 0,
	}
	for _, n := range snap.Nodes {
		counts[n.ChangeStatus]++
	}
	for status, n := range counts {
		m.files.WithLabelValues(string(status)).Set(float64(n))
	}
	m.edges.Set(float64(len(snap.Edges)))
}

// ObserveDiscarded counts a superseded rebuild.
func (m *Metrics) ObserveDiscarded() {
	m.discarded.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
