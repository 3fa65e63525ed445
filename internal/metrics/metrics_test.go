package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestMiddlewareAndHandler(t *testing.T) {
	m := New("svc")
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/metrics", m.Handler())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTeapot) })

	for _, id := range []string{"1", "2"} {
		if _, err := app.Test(httptest.NewRequest("GET", "/items/"+id, nil)); err != nil {
			t.Fatal(err)
		}
	}
	m.InvoiceCreated()
	m.InvoiceFailed("validation")
	m.InvoicesReaped(3)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)
	for _, want := range []string{
		`http_requests_total{method="GET",path="/items/:id",service="svc",status="418"} 2`,
		`http_status_category_total{category="4xx",service="svc"} 2`,
		`invoices_created_total 1`,
		`invoice_create_failures_total{reason="validation"} 1`,
		`invoices_reaped_total 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.InvoiceCreated()
	m.InvoiceFailed("x")
	m.InvoicesReaped(1)
}

func TestSeparateRegistries(t *testing.T) {
	// two instances in one process must not panic on registration
	_ = New("a")
	_ = New("b")
}
