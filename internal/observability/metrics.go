package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API, sweep, and batch flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	sentTotal           *prometheus.CounterVec
	deliveryFailedTotal *prometheus.CounterVec
	sendDuration        *prometheus.HistogramVec
	acksTotal           *prometheus.CounterVec
	sweepDuration       *prometheus.HistogramVec
	sweepDueTotal       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "club_notifier",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "club_notifier",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		sentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "club_notifier",
				Name:      "notifications_sent_total",
				Help:      "Total number of notices delivered by the gateway, by kind.",
			},
			[]string{"kind"},
		),
		deliveryFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "club_notifier",
				Name:      "notifications_delivery_failed_total",
				Help:      "Total number of per-recipient delivery failures, by kind.",
			},
			[]string{"kind"},
		),
		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "club_notifier",
				Name:      "notification_send_duration_seconds",
				Help:      "Gateway send duration in seconds grouped by kind.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"kind"},
		),
		acksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "club_notifier",
				Name:      "acknowledgments_total",
				Help:      "Total number of inbound acknowledgments processed, by kind.",
			},
			[]string{"kind"},
		),
		sweepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "club_notifier",
				Name:      "sweep_duration_seconds",
				Help:      "Duration of one reminder sweep pass grouped by reminder type.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"type"},
		),
		sweepDueTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "club_notifier",
				Name:      "sweep_due_recipients_total",
				Help:      "Total number of due recipients selected by sweeps, by reminder type.",
			},
			[]string{"type"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.sentTotal,
		m.deliveryFailedTotal,
		m.sendDuration,
		m.acksTotal,
		m.sweepDuration,
		m.sweepDueTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncSent(kind string) {
	if m == nil {
		return
	}
	m.sentTotal.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) IncDeliveryFailed(kind string) {
	if m == nil {
		return
	}
	m.deliveryFailedTotal.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) ObserveSendDuration(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sendDuration.WithLabelValues(normalizeLabel(kind)).Observe(seconds)
}

func (m *Metrics) IncAck(kind string) {
	if m == nil {
		return
	}
	m.acksTotal.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) ObserveSweepDuration(reminderType string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.sweepDuration.WithLabelValues(normalizeLabel(reminderType)).Observe(seconds)
}

func (m *Metrics) AddSweepDue(reminderType string, count int) {
	if m == nil || count < 0 {
		return
	}
	m.sweepDueTotal.WithLabelValues(normalizeLabel(reminderType)).Add(float64(count))
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
