// Package metrics collects and exposes Prometheus metrics for the game
// backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the service layer uses to report events.
type Recorder interface {
	RecordUserRegistered()
	RecordSessionStarted()
	RecordResultRecorded()
	RecordResultRejected(reason string)
	RecordLeaderboardQuery(duration time.Duration)
}

// Collector implements Recorder on top of Prometheus.
type Collector struct {
	registry        *prometheus.Registry
	usersRegistered prometheus.Counter
	sessionsStarted prometheus.Counter
	resultsRecorded prometheus.Counter
	resultsRejected *prometheus.CounterVec
	queryDuration   prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics on a fresh
// registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		usersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixiedash_users_registered_total",
			Help: "Total number of registered users.",
		}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixiedash_sessions_started_total",
			Help: "Total number of game sessions started.",
		}),
		resultsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixiedash_results_recorded_total",
			Help: "Total number of game results recorded.",
		}),
		resultsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixiedash_results_rejected_total",
			Help: "Total number of rejected result submissions by reason.",
		}, []string{"reason"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fixiedash_leaderboard_query_seconds",
			Help:    "Latency of leaderboard queries in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		c.usersRegistered,
		c.sessionsStarted,
		c.resultsRecorded,
		c.resultsRejected,
		c.queryDuration,
	)

	return c
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordUserRegistered() { c.usersRegistered.Inc() }

func (c *Collector) RecordSessionStarted() { c.sessionsStarted.Inc() }

func (c *Collector) RecordResultRecorded() { c.resultsRecorded.Inc() }

func (c *Collector) RecordResultRejected(reason string) {
	c.resultsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordLeaderboardQuery(duration time.Duration) {
	c.queryDuration.Observe(duration.Seconds())
}
