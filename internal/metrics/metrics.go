package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several apps (e.g. in tests) can coexist in
// one process without duplicate-registration panics.
type Metrics struct {
	ServiceName string
	Registry    *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	status   *prometheus.CounterVec

	invoicesCreated prometheus.Counter
	invoiceFailures *prometheus.CounterVec
	invoicesReaped  prometheus.Counter
}

func New(serviceName string) *Metrics {
	m := &Metrics{
		ServiceName: serviceName,
		Registry:    prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path", "status"}),
		status: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		}, []string{"service", "category"}),
		invoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoices_created_total",
			Help: "Invoices committed",
		}),
		invoiceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "invoice_create_failures_total",
			Help: "Invoice creations rejected or failed, by reason",
		}, []string{"reason"}),
		invoicesReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoices_reaped_total",
			Help: "Stale pending invoice headers removed by the reaper",
		}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.status,
		m.invoicesCreated, m.invoiceFailures, m.invoicesReaped,
	)
	return m
}

func category(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	}
	return ""
}

// Middleware records request count and latency keyed by route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		path := c.Route().Path
		statusStr := strconv.Itoa(status)

		m.requests.WithLabelValues(m.ServiceName, c.Method(), path, statusStr).Inc()
		m.duration.WithLabelValues(m.ServiceName, c.Method(), path, statusStr).Observe(time.Since(start).Seconds())
		if cat := category(status); cat != "" {
			m.status.WithLabelValues(m.ServiceName, cat).Inc()
		}
		return err
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) InvoiceCreated() {
	if m != nil {
		m.invoicesCreated.Inc()
	}
}

func (m *Metrics) InvoiceFailed(reason string) {
	if m != nil {
		m.invoiceFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) InvoicesReaped(n int64) {
	if m != nil && n > 0 {
		m.invoicesReaped.Add(float64(n))
	}
}
