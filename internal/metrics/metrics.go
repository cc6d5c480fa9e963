// Package metrics holds the Prometheus collectors for games, suggestions,
// persistence and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	GamesStarted    *prometheus.CounterVec
	GamesFinished   *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	Interactions    *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	Suggestions     *prometheus.CounterVec
	SuggestLatency  *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	WSConnections   prometheus.Gauge
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		GamesStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodplay_games_started_total",
			Help: "Game sessions created, by kind",
		}, []string{"kind"}),
		GamesFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodplay_games_finished_total",
			Help: "Games played to completion, by kind and winner",
		}, []string{"kind", "winner"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "moodplay_sessions_active",
			Help: "Game sessions currently held by the hub",
		}),
		Interactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodplay_interactions_total",
			Help: "Mood interactions recorded, by mood",
		}, []string{"mood"}),
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodplay_persist_failures_total",
			Help: "Interaction log load/save failures",
		}, []string{"op"}),
		Suggestions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodplay_suggestions_total",
			Help: "Suggestion service calls, by operation and outcome",
		}, []string{"op", "outcome"}),
		SuggestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "moodplay_suggestion_duration_seconds",
			Help:    "Suggestion service call latency",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "moodplay_http_requests_total",
			Help: "HTTP requests, by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "moodplay_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		WSConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "moodplay_websocket_connections_active",
			Help: "Open websocket connections",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) GameStarted(kind string) {
	m.GamesStarted.WithLabelValues(kind).Inc()
}

func (m *Metrics) GameFinished(kind, winner string) {
	m.GamesFinished.WithLabelValues(kind, winner).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) InteractionRecorded(mood string) {
	m.Interactions.WithLabelValues(mood).Inc()
}

func (m *Metrics) PersistFailed(op string) {
	m.PersistFailures.WithLabelValues(op).Inc()
}

// SuggestionDone records one suggestion call. outcome is "ok" or the
// failure class.
func (m *Metrics) SuggestionDone(op, outcome string, d time.Duration) {
	m.Suggestions.WithLabelValues(op, outcome).Inc()
	m.SuggestLatency.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
