// Package metrics exposes the service's Prometheus instrumentation.
// Collectors are registered on the default registry via promauto and
// served by the /metrics endpoint.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersCreated counts orders accepted into the system.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_orders_created_total",
		Help: "Number of orders created.",
	})

	// OffersIssued counts offer rounds that reached a courier.
	OffersIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_offers_issued_total",
		Help: "Number of offers issued to couriers.",
	})

	// OffersResolved counts offer resolutions by outcome
	// (accepted, rejected, expired, superseded).
	OffersResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_offers_resolved_total",
		Help: "Number of offers resolved, labeled by outcome.",
	}, []string{"outcome"})

	// DispatchEscalations counts orders flagged for manual dispatch.
	DispatchEscalations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_escalations_total",
		Help: "Number of orders escalated to manual dispatch.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_http_request_duration_seconds",
		Help:    "HTTP request latency, labeled by method, route, and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request latency per route. Routes are labeled by
// their registered pattern, not the raw path, to keep cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					status = httpErr.Code
				}
			}

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
