package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsDeliveryCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncSent("Reminder")
	metrics.IncDeliveryFailed("reminder")
	metrics.ObserveSendDuration("reminder", 120*time.Millisecond)
	metrics.IncAck("custom")
	metrics.ObserveSweepDuration("dues", time.Second)
	metrics.AddSweepDue("dues", 3)

	if got := testutil.ToFloat64(metrics.sentTotal.WithLabelValues("reminder")); got != 1 {
		t.Fatalf("notifications_sent_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.deliveryFailedTotal.WithLabelValues("reminder")); got != 1 {
		t.Fatalf("notifications_delivery_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.acksTotal.WithLabelValues("custom")); got != 1 {
		t.Fatalf("acknowledgments_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.sweepDueTotal.WithLabelValues("dues")); got != 3 {
		t.Fatalf("sweep_due_recipients_total = %v, want 3", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncSent("reminder")
	metrics.IncDeliveryFailed("reminder")
	metrics.IncAck("reminder")
	metrics.ObserveSendDuration("reminder", time.Second)
	metrics.ObserveSweepDuration("dues", time.Second)
	metrics.AddSweepDue("dues", 1)
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
