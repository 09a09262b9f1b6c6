// Package metrics collects workflow and roster metrics and exposes them to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Directory fetch results.
const (
	FetchSuccess     = "success"
	FetchNotFound    = "not_found"
	FetchUnavailable = "unavailable"
)

// Collector records guide transitions and directory traffic.
type Collector struct {
	transitions    *prometheus.CounterVec
	fetches        *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
	refreshSkipped prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aternotes_guide_transitions_total",
			Help: "Guide status changes by target status.",
		}, []string{"to"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aternotes_directory_fetch_total",
			Help: "Directory profile fetches by result.",
		}, []string{"result"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aternotes_directory_fetch_seconds",
			Help:    "Directory profile fetch latency in seconds, including limiter wait.",
			Buckets: prometheus.DefBuckets,
		}),
		refreshSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aternotes_roster_refresh_skipped_total",
			Help: "Moderator refreshes answered from the stored record because of the cooldown.",
		}),
	}

	reg.MustRegister(
		c.transitions,
		c.fetches,
		c.fetchLatency,
		c.refreshSkipped,
	)

	return c
}

// RecordTransition counts a guide moving into status to.
func (c *Collector) RecordTransition(to string) {
	c.transitions.WithLabelValues(to).Inc()
}

// RecordDirectoryFetch counts one profile fetch and its latency.
func (c *Collector) RecordDirectoryFetch(result string, duration time.Duration) {
	c.fetches.WithLabelValues(result).Inc()
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordRefreshSkipped counts a refresh served inside the cooldown window.
func (c *Collector) RecordRefreshSkipped() {
	c.refreshSkipped.Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
