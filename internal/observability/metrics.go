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

// Metrics stores Prometheus collectors used by the HTTP and dispatch flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	dispatchSentTotal    *prometheus.CounterVec
	dispatchFailedTotal  *prometheus.CounterVec
	dispatchSkippedTotal *prometheus.CounterVec
	sendRetriesTotal     *prometheus.CounterVec
	providerSendDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "form_relay",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "form_relay",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		dispatchSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "form_relay",
				Name:      "dispatch_sent_total",
				Help:      "Total number of dispatches that delivered an email.",
			},
			[]string{"form"},
		),
		dispatchFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "form_relay",
				Name:      "dispatch_failed_total",
				Help:      "Total number of dispatches that ended in failure.",
			},
			[]string{"form", "reason"},
		),
		dispatchSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "form_relay",
				Name:      "dispatch_skipped_total",
				Help:      "Total number of dispatches skipped without a send.",
			},
			[]string{"form", "reason"},
		),
		sendRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "form_relay",
				Name:      "send_retries_total",
				Help:      "Total number of internal send retries within dispatches.",
			},
			[]string{"form"},
		),
		providerSendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "form_relay",
				Name:      "provider_send_duration_seconds",
				Help:      "Provider send duration in seconds, including internal retries.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"form"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dispatchSentTotal,
		m.dispatchFailedTotal,
		m.dispatchSkippedTotal,
		m.sendRetriesTotal,
		m.providerSendDuration,
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

func (m *Metrics) IncDispatchSent(form string) {
	if m == nil {
		return
	}
	m.dispatchSentTotal.WithLabelValues(normalizeForm(form)).Inc()
}

func (m *Metrics) IncDispatchFailed(form string, reason string) {
	if m == nil {
		return
	}
	m.dispatchFailedTotal.WithLabelValues(normalizeForm(form), normalizeReason(reason)).Inc()
}

func (m *Metrics) IncDispatchSkipped(form string, reason string) {
	if m == nil {
		return
	}
	m.dispatchSkippedTotal.WithLabelValues(normalizeForm(form), normalizeReason(reason)).Inc()
}

func (m *Metrics) AddSendRetries(form string, retries int) {
	if m == nil || retries <= 0 {
		return
	}
	m.sendRetriesTotal.WithLabelValues(normalizeForm(form)).Add(float64(retries))
}

func (m *Metrics) ObserveSendDuration(form string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.providerSendDuration.WithLabelValues(normalizeForm(form)).Observe(seconds)
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

func normalizeForm(form string) string {
	normalized := strings.ToLower(strings.TrimSpace(form))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

func normalizeReason(reason string) string {
	normalized := strings.TrimSpace(strings.ToLower(reason))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
