// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	catalogCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_cache_total",
		Help:      "Catalog cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	upstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_errors_total",
		Help:      "Failed calls to upstream APIs by service.",
	}, []string{"service"})

	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders placed through checkout.",
	})

	orderValue = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_total_amount",
		Help:      "Order totals at checkout in the store currency.",
		Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000},
	})

	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Order status changes by target status.",
	}, []string{"status"})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Kafka events published by type and outcome.",
	}, []string{"event_type", "outcome"})

	eventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_consumed_total",
		Help:      "Kafka events consumed by type and outcome.",
	}, []string{"event_type", "outcome"})
)

// CacheHit records a catalog cache hit.
func CacheHit() { catalogCache.WithLabelValues("hit").Inc() }

// CacheMiss records a catalog cache miss.
func CacheMiss() { catalogCache.WithLabelValues("miss").Inc() }

// CacheError records a failed catalog cache read or write.
func CacheError() { catalogCache.WithLabelValues("error").Inc() }

// UpstreamError records a failed upstream call.
func UpstreamError(service string) { upstreamErrors.WithLabelValues(service).Inc() }

// OrderPlaced records a checkout and its total.
func OrderPlaced(total float64) {
	ordersPlaced.Inc()
	orderValue.Observe(total)
}

// OrderTransition records an order moving to status.
func OrderTransition(status string) { orderTransitions.WithLabelValues(status).Inc() }

// EventPublished records a publish attempt.
func EventPublished(eventType string, err error) {
	eventsPublished.WithLabelValues(eventType, outcome(err)).Inc()
}

// EventConsumed records a handled message.
func EventConsumed(eventType string, err error) {
	eventsConsumed.WithLabelValues(eventType, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
