package metrics

import (
	"time"

	"github.com/insurdesk/concierge/pkg/domain/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "concierge"

// Metrics holds the service counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	probes        *prometheus.CounterVec
	gatewayReady  prometheus.Gauge
	forwards      *prometheus.CounterVec
	indexRuns     *prometheus.CounterVec
	indexEntries  *prometheus.CounterVec
	searches      *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		probes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_probes_total",
			Help:      "Provider health probes by resulting readiness",
		}, []string{"state"}),
		gatewayReady: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gateway_ready",
			Help:      "1 when the provider was last seen healthy",
		}),
		forwards: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_forwards_total",
			Help:      "Chat turns by outcome",
		}, []string{"outcome"}),
		indexRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexing_runs_total",
			Help:      "Indexing runs by source type and result",
		}, []string{"source_type", "result"}),
		indexEntries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexing_entries_total",
			Help:      "Entries vectorized by source type",
		}, []string{"source_type"}),
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Similarity searches by kind",
		}, []string{"kind"}),
		httpDurations: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveProbe(state types.Readiness) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(string(state)).Inc()
	if state.IsReady() {
		m.gatewayReady.Set(1)
	} else {
		m.gatewayReady.Set(0)
	}
}

// ObserveForward counts a chat turn as relayed or degraded
func (m *Metrics) ObserveForward(degraded bool) {
	if m == nil {
		return
	}
	outcome := "relayed"
	if degraded {
		outcome = "degraded"
	}
	m.forwards.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveIndexRun(st types.SourceType, success bool, processed int) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.indexRuns.WithLabelValues(st.String(), result).Inc()
	if processed > 0 {
		m.indexEntries.WithLabelValues(st.String()).Add(float64(processed))
	}
}

// ObserveSearch counts a search; kind is "text" or "vector"
func (m *Metrics) ObserveSearch(kind string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDurations.WithLabelValues(method, route, status).Observe(d.Seconds())
}
