package observability

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsDispatchCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncDispatchSent("CONTACT")
	metrics.IncDispatchFailed("contact", "retry_exhausted")
	metrics.IncDispatchSkipped("contact", "already_sent")
	metrics.AddSendRetries("contact", 2)
	metrics.ObserveSendDuration("contact", 120*time.Millisecond)

	if got := testutil.ToFloat64(metrics.dispatchSentTotal.WithLabelValues("contact")); got != 1 {
		t.Fatalf("dispatch_sent_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.dispatchFailedTotal.WithLabelValues("contact", "retry_exhausted")); got != 1 {
		t.Fatalf("dispatch_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.dispatchSkippedTotal.WithLabelValues("contact", "already_sent")); got != 1 {
		t.Fatalf("dispatch_skipped_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.sendRetriesTotal.WithLabelValues("contact")); got != 2 {
		t.Fatalf("send_retries_total = %v, want 2", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncDispatchSent("contact")
	metrics.IncDispatchFailed("contact", "x")
	metrics.IncDispatchSkipped("contact", "x")
	metrics.AddSendRetries("contact", 1)
	metrics.ObserveSendDuration("contact", time.Second)
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsErrorStatus(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	_, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/boom", "500")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}
