// Package metrics holds the Prometheus instruments for the products client
// and the query cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the console. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// Client metrics
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits          *prometheus.CounterVec
	CacheFetches       *prometheus.CounterVec
	CacheShared        *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec
}

// NewCollector creates a collector registered on its own registry under the
// given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "client_requests_total",
				Help:      "Total number of products API requests",
			},
			[]string{"operation", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "client_request_duration_seconds",
				Help:      "Products API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Reads served from the query cache without a request",
			},
			[]string{"key"},
		),
		CacheFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_fetches_total",
				Help:      "Requests issued by the query cache",
			},
			[]string{"key", "outcome"},
		),
		CacheShared: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_shared_total",
				Help:      "Reads that joined an in-flight request",
			},
			[]string{"key"},
		),
		CacheInvalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_invalidations_total",
				Help:      "Cache keys marked stale by mutations",
			},
			[]string{"key"},
		),
	}

	registry.MustRegister(
		c.Requests,
		c.RequestDuration,
		c.CacheHits,
		c.CacheFetches,
		c.CacheShared,
		c.CacheInvalidations,
	)

	return c
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one products API round trip.
func (c *Collector) ObserveRequest(operation string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(operation, outcome(err)).Inc()
	c.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (c *Collector) CacheHit(key string) {
	if c == nil {
		return
	}
	c.CacheHits.WithLabelValues(key).Inc()
}

func (c *Collector) CacheFetch(key string, err error) {
	if c == nil {
		return
	}
	c.CacheFetches.WithLabelValues(key, outcome(err)).Inc()
}

func (c *Collector) CacheSharedWait(key string) {
	if c == nil {
		return
	}
	c.CacheShared.WithLabelValues(key).Inc()
}

func (c *Collector) CacheInvalidated(key string) {
	if c == nil {
		return
	}
	c.CacheInvalidations.WithLabelValues(key).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
