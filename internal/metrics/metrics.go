// Package metrics exposes Prometheus counters for turns, commands, live
// message syncs and catalog calls. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "animelist"

type Metrics struct {
	registry *prometheus.Registry

	turns          *prometheus.CounterVec
	commands       *prometheus.CounterVec
	liveSync       *prometheus.CounterVec
	upstream       *prometheus.HistogramVec
	activeWorkers  prometheus.Gauge
	droppedUpdates *prometheus.CounterVec
}

// New registers every collector on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Processed updates by result.",
		}, []string{"result"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Handled commands and button presses by name.",
		}, []string{"command"}),
		liveSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_sync_edits_total",
			Help:      "Live message edits by outcome.",
		}, []string{"outcome"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Catalog and wallpaper API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"api", "op", "status"}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chat_workers",
			Help:      "Running per-chat workers.",
		}),
		droppedUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_updates_total",
			Help:      "Updates rejected before reaching a chat worker, by reason.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.turns, m.commands, m.liveSync, m.upstream, m.activeWorkers, m.droppedUpdates,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Turn(result string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(result).Inc()
}

func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
}

func (m *Metrics) LiveSync(outcome string) {
	if m == nil {
		return
	}
	m.liveSync.WithLabelValues(outcome).Inc()
}

// Upstream records one call to an external API.
func (m *Metrics) Upstream(api, op string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.upstream.WithLabelValues(api, op, status).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Workers(n int) {
	if m == nil {
		return
	}
	m.activeWorkers.Set(float64(n))
}

// DroppedUpdate counts an update refused with reason "queue_full" or
// "rate_limited".
func (m *Metrics) DroppedUpdate(reason string) {
	if m == nil {
		return
	}
	m.droppedUpdates.WithLabelValues(reason).Inc()
}
