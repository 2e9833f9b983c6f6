package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Middleware(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/orders/:order_no", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/orders/abc", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/orders/:order_no", "GET", "404")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "canteen_http_requests_total")
}

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.CheckoutOutcome("ok")
	m.CheckoutOutcome("ok")
	m.OrderTransition("paid", "accepted")
	m.EventPublished("order.paid", nil)
	m.EventPublished("order.paid", errors.New("down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("paid", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outbox.WithLabelValues("order.paid", "error")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CheckoutOutcome("ok")
		m.OrderTransition("a", "b")
		m.EventPublished("t", nil)
	})
}
