package services_test

import (
	"context"
	"errors"
	"testing"

	"storebill/internal/domain"
	"storebill/internal/repos"
	"storebill/internal/services"
)

func TestCustomerService_DuplicatePhone(t *testing.T) {
	f := newFixture(t)
	svc := services.NewCustomerService(repos.NewCustomerRepo(f.db))
	ctx := context.Background()

	if _, err := svc.Create(ctx, services.CustomerInput{Name: "Asha", Phone: "9123456780"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Create(ctx, services.CustomerInput{Name: "Someone Else", Phone: " 9123456780 "})
	if !errors.Is(err, domain.ErrDuplicatePhone) {
		t.Fatalf("want ErrDuplicatePhone, got %v", err)
	}
}

func TestCustomerRepo_UniqueIndexBacksDuplicateCheck(t *testing.T) {
	f := newFixture(t)
	repo := repos.NewCustomerRepo(f.db)
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.Customer{ID: "c-1", Name: "A", Phone: "9000000009"}); err != nil {
		t.Fatal(err)
	}
	// bypasses the service pre-check, as a racing request would
	err := repo.Create(ctx, &domain.Customer{ID: "c-2", Name: "B", Phone: "9000000009"})
	if !errors.Is(err, domain.ErrDuplicatePhone) {
		t.Fatalf("want ErrDuplicatePhone from unique index, got %v", err)
	}
}

func TestCustomerService_ValidationAndSearch(t *testing.T) {
	f := newFixture(t)
	svc := services.NewCustomerService(repos.NewCustomerRepo(f.db))
	ctx := context.Background()

	if _, err := svc.Create(ctx, services.CustomerInput{Name: "", Phone: "12"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	for _, in := range []services.CustomerInput{
		{Name: "Lakshmi", Phone: "9444000001"},
		{Name: "Lalitha", Phone: "9444000002"},
		{Name: "Gopal", Phone: "9555000003"},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatal(err)
		}
	}
	byName, err := svc.List(ctx, 1, 0, "LA")
	if err != nil {
		t.Fatal(err)
	}
	if byName.Metadata.Total != 2 || byName.Metadata.Limit != 20 {
		t.Fatalf("name search: %+v", byName.Metadata)
	}
	byPhone, err := svc.List(ctx, 1, 10, "9555")
	if err != nil {
		t.Fatal(err)
	}
	if byPhone.Metadata.Total != 1 || byPhone.Customers[0].Name != "Gopal" {
		t.Fatalf("phone search: %+v", byPhone)
	}
}

func TestCustomerService_DeleteKeepsInvoices(t *testing.T) {
	f := newFixture(t)
	svc := services.NewCustomerService(repos.NewCustomerRepo(f.db))
	ctx := context.Background()

	cust, err := svc.Create(ctx, services.CustomerInput{Name: "Temp", Phone: "9333000001"})
	if err != nil {
		t.Fatal(err)
	}
	in := f.oneLine(1, 60)
	in.CustomerID = &cust.ID
	inv, err := f.invoices.Create(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, cust.ID); err != nil {
		t.Fatal(err)
	}
	got, err := f.invoices.Get(ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Customer != nil || got.CustomerID == nil {
		t.Fatalf("want dangling customer id with null customer, got %+v / %v", got.Customer, got.CustomerID)
	}
}

func TestSettingsService_LazyDefaultsAndUpdate(t *testing.T) {
	f := newFixture(t)
	svc := services.NewSettingsService(repos.NewSettingsRepo(f.db))
	ctx := context.Background()

	st, err := svc.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Name != "N2H Enterprises" || st.Phone == nil || *st.Phone != "9999999999" {
		t.Fatalf("unexpected defaults: %+v", st)
	}
	if n := f.count(t, `SELECT COUNT(*) FROM store_settings`); n != 1 {
		t.Fatalf("defaults not persisted on first read, rows=%d", n)
	}

	gstin := "29ABCDE1234F1Z5"
	if _, err := svc.Update(ctx, services.SettingsInput{Name: "Amma Foods", GSTIN: &gstin}); err != nil {
		t.Fatal(err)
	}
	st, err = svc.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Name != "Amma Foods" || st.GSTIN == nil || *st.GSTIN != gstin || st.Phone != nil {
		t.Fatalf("update not applied: %+v", st)
	}

	bad := "not-an-email"
	if _, err := svc.Update(ctx, services.SettingsInput{Name: "X", Email: &bad}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}
