package repos_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"storebill/internal/domain"
	"storebill/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:", 0)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestFormatInvoiceNo(t *testing.T) {
	cases := map[int64]string{1: "INV-001", 42: "INV-042", 999: "INV-999", 1000: "INV-1000", 12345: "INV-12345"}
	for n, want := range cases {
		if got := repos.FormatInvoiceNo(n); got != want {
			t.Errorf("FormatInvoiceNo(%d) = %s, want %s", n, got, want)
		}
		back, err := repos.ParseInvoiceNo(want)
		if err != nil || back != n {
			t.Errorf("ParseInvoiceNo(%s) = %d, %v", want, back, err)
		}
	}
}

func TestParseInvoiceNo_Malformed(t *testing.T) {
	for _, s := range []string{"", "INV-", "INV-12a", "inv-001", "BILL-001", "INV--1", " INV-001"} {
		if _, err := repos.ParseInvoiceNo(s); !errors.Is(err, domain.ErrIntegrity) {
			t.Errorf("ParseInvoiceNo(%q): want ErrIntegrity, got %v", s, err)
		}
	}
}

func TestCounter_RollbackReleasesNumber(t *testing.T) {
	db := memdb(t)
	counter := repos.NewCounterRepo(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repos.InTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, _, err := counter.NextInvoiceNo(ctx, tx); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if cur, err := counter.Current(ctx); err != nil || cur != 0 {
		t.Fatalf("rolled back allocation leaked: current=%d err=%v", cur, err)
	}

	var no string
	err = repos.InTx(ctx, db, func(tx *sqlx.Tx) error {
		var err error
		_, no, err = counter.NextInvoiceNo(ctx, tx)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if no != "INV-001" {
		t.Fatalf("want INV-001, got %s", no)
	}
}
