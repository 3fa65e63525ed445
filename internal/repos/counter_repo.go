package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/jmoiron/sqlx"

	"storebill/internal/domain"
)

const invoiceCounter = "invoice"

var reInvoiceNo = regexp.MustCompile(`^INV-([0-9]+)$`)

// FormatInvoiceNo renders n as INV-001, INV-002, ... widening past 999.
func FormatInvoiceNo(n int64) string { return fmt.Sprintf("INV-%03d", n) }

// ParseInvoiceNo is the strict inverse of FormatInvoiceNo.
func ParseInvoiceNo(s string) (int64, error) {
	m := reInvoiceNo.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invoice number %q: %w", s, domain.ErrIntegrity)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invoice number %q: %w", s, domain.ErrIntegrity)
	}
	return n, nil
}

type CounterRepo struct{ db *sqlx.DB }

func NewCounterRepo(db *sqlx.DB) *CounterRepo { return &CounterRepo{db: db} }

// NextInvoiceNo allocates the next invoice number inside tx. The increment
// rolls back with tx, so failed creations leave no gap.
func (r *CounterRepo) NextInvoiceNo(ctx context.Context, tx *sqlx.Tx) (int64, string, error) {
	n, err := r.increment(ctx, tx, invoiceCounter)
	if errors.Is(err, sql.ErrNoRows) {
		if err = r.bootstrap(ctx, tx); err != nil {
			return 0, "", err
		}
		n, err = r.increment(ctx, tx, invoiceCounter)
	}
	if err != nil {
		return 0, "", err
	}
	return n, FormatInvoiceNo(n), nil
}

// Current reports the last allocated value, 0 if nothing was allocated yet.
func (r *CounterRepo) Current(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT value FROM counters WHERE name = ?`), invoiceCounter)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

func (r *CounterRepo) increment(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	var n int64
	err := tx.QueryRowxContext(ctx, tx.Rebind(`
		UPDATE counters SET value = value + 1 WHERE name = ? RETURNING value
	`), name).Scan(&n)
	return n, err
}

// bootstrap seeds the counter from the newest stored invoice so databases that
// predate the counter row keep their numbering.
func (r *CounterRepo) bootstrap(ctx context.Context, tx *sqlx.Tx) error {
	var last string
	var start int64
	err := tx.GetContext(ctx, &last, `
		SELECT invoice_no FROM invoices ORDER BY created_at DESC, seq DESC LIMIT 1
	`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		if start, err = ParseInvoiceNo(last); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO counters(name, value) VALUES(?, ?)
		ON CONFLICT(name) DO NOTHING
	`), invoiceCounter, start)
	return err
}
