// Package metrics records client activity as Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements encompass.Metrics.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokenRequests   *prometheus.CounterVec
	authRetries     prometheus.Counter
}

var _ encompass.Metrics = (*Collector)(nil)

// New creates a collector and registers it with registerer. A nil
// registerer uses prometheus.DefaultRegisterer.
func New(namespace string, registerer prometheus.Registerer) (*Collector, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	collector := &Collector{
		// Tracks the number of outbound API calls to Encompass.
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of Encompass API requests made (by method and status).",
			},
			[]string{"method", "status"},
		),
		// Measures duration of API requests to Encompass.
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Duration of Encompass API requests in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
			},
			[]string{"method"},
		),
		tokenRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_requests_total",
				Help:      "Number of token requests by outcome.",
			},
			[]string{"result"},
		),
		authRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_retries_total",
				Help:      "Number of requests retried with a new token after a 401.",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		collector.requestsTotal,
		collector.requestDuration,
		collector.tokenRequests,
		collector.authRetries,
	} {
		err := registerer.Register(c)
		if err != nil {
			return nil, err
		}
	}

	return collector, nil
}

// ObserveRequest implements encompass.Metrics.
func (c *Collector) ObserveRequest(method string, statusCode int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// TokenRequested implements encompass.Metrics.
func (c *Collector) TokenRequested(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}

	c.tokenRequests.WithLabelValues(result).Inc()
}

// AuthRetried implements encompass.Metrics.
func (c *Collector) AuthRetried() {
	c.authRetries.Inc()
}
