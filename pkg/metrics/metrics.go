// Package metrics exposes Prometheus counters for the poll engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
// Each Collector owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Engine metrics
	Votes           *prometheus.CounterVec
	PollsCreated    prometheus.Counter
	PollsCopied     prometheus.Counter
	SimulatedVotes  prometheus.Counter
	LiveSimulations prometheus.Gauge
}

// NewCollector creates a collector whose metric names start with namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Votes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_total",
				Help:      "Ballots submitted, by outcome",
			},
			[]string{"outcome"},
		),
		PollsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_created_total",
			Help:      "Total number of polls created",
		}),
		PollsCopied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_duplicated_total",
			Help:      "Total number of polls duplicated",
		}),
		SimulatedVotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulated_votes_total",
			Help:      "Votes added by the simulator",
		}),
		LiveSimulations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_simulations",
			Help:      "Polls with a running live simulation",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.Votes,
		c.PollsCreated,
		c.PollsCopied,
		c.SimulatedVotes,
		c.LiveSimulations,
	)

	return c
}

// Registry returns the registry backing this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request
func (c *Collector) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordVote counts one ballot by outcome
func (c *Collector) RecordVote(outcome string) {
	if c == nil {
		return
	}
	c.Votes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordPollCreated() {
	if c == nil {
		return
	}
	c.PollsCreated.Inc()
}

func (c *Collector) RecordPollDuplicated() {
	if c == nil {
		return
	}
	c.PollsCopied.Inc()
}

// RecordSimulated adds n simulated votes
func (c *Collector) RecordSimulated(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.SimulatedVotes.Add(float64(n))
}

// SetLiveSimulations reports how many live simulations are running
func (c *Collector) SetLiveSimulations(n int) {
	if c == nil {
		return
	}
	c.LiveSimulations.Set(float64(n))
}
