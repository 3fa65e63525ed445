package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"storebill/internal/domain"
	"storebill/internal/repos"
	"storebill/internal/services"
)

type fixture struct {
	db       *sqlx.DB
	invoices *services.InvoiceService
	products []domain.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:", 0)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	prodRepo := repos.NewProductRepo(db)
	prods, _, err := prodRepo.List(context.Background(), 1, 50, "")
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(prods) < 2 {
		t.Fatalf("expected seeded products, got %d", len(prods))
	}
	svc := services.NewInvoiceService(db, repos.NewInvoiceRepo(db), repos.NewCounterRepo(db),
		prodRepo, repos.NewCustomerRepo(db), nil)
	return &fixture{db: db, invoices: svc, products: prods}
}

// oneLine builds a valid single-line invoice for qty × price.
func (f *fixture) oneLine(qty int, price float64) services.CreateInvoiceInput {
	p := f.products[0]
	total := float64(qty) * price
	return services.CreateInvoiceInput{
		Items:       []services.ItemInput{{ProductID: p.ID, Name: p.Name, Quantity: qty, UnitPrice: price, Total: total}},
		Subtotal:    total,
		TotalAmount: total,
		PaymentMode: domain.PaymentCash,
	}
}

func (f *fixture) count(t *testing.T, query string) int {
	t.Helper()
	var n int
	if err := f.db.Get(&n, query); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}
