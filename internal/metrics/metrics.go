// Package metrics collects and exposes Prometheus metrics for the sync
// pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records sync cycle observations into a Prometheus registry.
type Collector struct {
	cycleSuccess  prometheus.Counter
	cycleFailure  prometheus.Counter
	cycleDuration prometheus.Histogram
	postsFetched  prometheus.Counter
	postsInserted prometheus.Counter
	postsReplaced prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cycleSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factsync_cycle_success_total",
			Help: "Total number of completed sync cycles.",
		}),
		cycleFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factsync_cycle_failure_total",
			Help: "Total number of sync cycles that failed before storing anything.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "factsync_cycle_duration_seconds",
			Help:    "Duration of successful sync cycles in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		postsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factsync_posts_fetched_total",
			Help: "Total number of records fetched from the upstream source.",
		}),
		postsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factsync_posts_inserted_total",
			Help: "Total number of records stored for the first time.",
		}),
		postsReplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factsync_posts_replaced_total",
			Help: "Total number of records replaced with a fresh upstream copy.",
		}),
	}

	reg.MustRegister(
		c.cycleSuccess,
		c.cycleFailure,
		c.cycleDuration,
		c.postsFetched,
		c.postsInserted,
		c.postsReplaced,
	)

	return c
}

// RecordCycleSuccess records a completed cycle and its duration.
func (c *Collector) RecordCycleSuccess(duration time.Duration) {
	c.cycleSuccess.Inc()
	c.cycleDuration.Observe(duration.Seconds())
}

// RecordCycleFailure records a cycle that aborted on a fetch error.
func (c *Collector) RecordCycleFailure() {
	c.cycleFailure.Inc()
}

// RecordPostsFetched records the size of a fetched batch.
func (c *Collector) RecordPostsFetched(count int) {
	c.postsFetched.Add(float64(count))
}

// RecordPostsInserted records records stored for the first time.
func (c *Collector) RecordPostsInserted(count int) {
	c.postsInserted.Add(float64(count))
}

// RecordPostsReplaced records records overwritten by a newer copy.
func (c *Collector) RecordPostsReplaced(count int) {
	c.postsReplaced.Add(float64(count))
}

// Handler returns the HTTP handler serving the Prometheus scrape
// endpoint for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
