// Package metrics exposes Prometheus metrics for the HTTP API, the dashboard
// aggregates and the extraction pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"invoicedash/internal/domain"
)

const namespace = "invoicedash"

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	invoicesTotal     prometheus.Gauge
	invoicesByStatus  *prometheus.GaugeVec
	averageConfidence prometheus.Gauge
	autoApprovalRate  prometheus.Gauge
	recomputesTotal   prometheus.Counter

	extractionRetries *prometheus.CounterVec
	eventsTotal       *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	invoicesTotal := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "invoices",
			Help:      "Number of invoices in the collection.",
		},
	)
	invoicesByStatus := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "invoices_by_status",
			Help:      "Number of invoices per review status.",
		},
		[]string{"status"},
	)
	averageConfidence := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "average_confidence",
			Help:      "Mean overall extraction confidence across all invoices.",
		},
	)
	autoApprovalRate := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "auto_approval_rate",
			Help:      "Percentage of invoices currently approved.",
		},
	)
	recomputesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "recomputes_total",
			Help:      "Total dashboard metric recomputations.",
		},
	)
	extractionRetries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "retries_total",
			Help:      "Total retried extraction provider calls by operation.",
		},
		[]string{"operation"},
	)
	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total lifecycle events published by type and result.",
		},
		[]string{"event_type", "result"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		invoicesTotal,
		invoicesByStatus,
		averageConfidence,
		autoApprovalRate,
		recomputesTotal,
		extractionRetries,
		eventsTotal,
	)

	return &Metrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		invoicesTotal:     invoicesTotal,
		invoicesByStatus:  invoicesByStatus,
		averageConfidence: averageConfidence,
		autoApprovalRate:  autoApprovalRate,
		recomputesTotal:   recomputesTotal,
		extractionRetries: extractionRetries,
		eventsTotal:       eventsTotal,
	}
}

// Registry returns the registry every collector is registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count, latency and in-flight requests. Routes are
// labelled by their gin pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveDashboard mirrors a recomputed metrics snapshot into gauges. It is
// registered as the store's metrics hook.
func (m *Metrics) ObserveDashboard(dm domain.DashboardMetrics) {
	m.recomputesTotal.Inc()
	m.invoicesTotal.Set(float64(dm.TotalInvoices))
	m.invoicesByStatus.WithLabelValues(string(domain.StatusReview)).Set(float64(dm.PendingReview))
	m.invoicesByStatus.WithLabelValues(string(domain.StatusApproved)).Set(float64(dm.Approved))
	m.invoicesByStatus.WithLabelValues(string(domain.StatusRejected)).Set(float64(dm.Rejected))
	m.averageConfidence.Set(dm.AverageConfidence)
	m.autoApprovalRate.Set(dm.AutoApprovalRate)
}

// RecordRetry counts a retried extraction call.
func (m *Metrics) RecordRetry(operation string) {
	m.extractionRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) recordEvent(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsTotal.WithLabelValues(eventType, result).Inc()
}
