package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"storebill/internal/domain"
)

type InvoiceRepo struct{ db *sqlx.DB }

func NewInvoiceRepo(db *sqlx.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

const invoiceSelect = `
  SELECT
    i.id, i.invoice_no, i.seq, i.customer_id, i.subtotal, i.discount, i.tax_amount,
    i.total_amount, i.payment_mode, i.status, i.idempotency_key, i.created_at, i.updated_at,
    c.id AS c_id, c.name AS c_name, c.phone AS c_phone, c.address AS c_address,
    c.created_at AS c_created_at, c.updated_at AS c_updated_at
  FROM invoices i
  LEFT JOIN customers c ON c.id = i.customer_id`

// invoiceRow is a header joined with its (possibly missing) customer.
type invoiceRow struct {
	domain.Invoice
	CustID      *string `db:"c_id"`
	CustName    *string `db:"c_name"`
	CustPhone   *string `db:"c_phone"`
	CustAddress *string `db:"c_address"`
	CustCreated *string `db:"c_created_at"`
	CustUpdated *string `db:"c_updated_at"`
}

func (row invoiceRow) compose() domain.Invoice {
	inv := row.Invoice
	inv.Items = []domain.InvoiceItem{}
	if row.CustID != nil {
		inv.Customer = &domain.Customer{
			ID:        *row.CustID,
			Name:      deref(row.CustName),
			Phone:     deref(row.CustPhone),
			Address:   row.CustAddress,
			CreatedAt: deref(row.CustCreated),
			UpdatedAt: deref(row.CustUpdated),
		}
	}
	return inv
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ---------- Write path (always inside the creation tx) ----------

// InsertHeader stores a PENDING header; MarkCommitted publishes it.
func (r *InvoiceRepo) InsertHeader(ctx context.Context, tx *sqlx.Tx, inv *domain.Invoice) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`
	  INSERT INTO invoices
	    (id, invoice_no, seq, customer_id, subtotal, discount, tax_amount, total_amount,
	     payment_mode, status, idempotency_key, created_at, updated_at)
	  VALUES
	    (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), inv.ID, inv.InvoiceNo, inv.Seq, inv.CustomerID, inv.Subtotal, inv.Discount, inv.TaxAmount,
		inv.TotalAmount, inv.PaymentMode, domain.StatusPending, inv.IdempotencyKey, inv.CreatedAt, inv.UpdatedAt)
	return err
}

// InsertItems writes all lines with one multi-row statement.
func (r *InvoiceRepo) InsertItems(ctx context.Context, tx *sqlx.Tx, items []domain.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `
	  INSERT INTO invoice_items (id, invoice_id, line_no, product_id, name, quantity, unit_price, total)
	  VALUES (:id, :invoice_id, :line_no, :product_id, :name, :quantity, :unit_price, :total)
	`, items)
	return err
}

func (r *InvoiceRepo) MarkCommitted(ctx context.Context, tx *sqlx.Tx, id string) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(`
	  UPDATE invoices SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`), domain.StatusCommitted, now(), id, domain.StatusPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("commit invoice %s: %w", id, domain.ErrIntegrity)
	}
	return nil
}

// ---------- Read path (committed invoices only) ----------

func (r *InvoiceRepo) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	var row invoiceRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(invoiceSelect+`
	  WHERE i.id = ? AND i.status = ?`), id, domain.StatusCommitted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("invoice", id)
	}
	if err != nil {
		return nil, err
	}
	out := []domain.Invoice{row.compose()}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ByIdempotencyKey returns the committed invoice created with key.
func (r *InvoiceRepo) ByIdempotencyKey(ctx context.Context, key string) (*domain.Invoice, error) {
	var id string
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`
	  SELECT id FROM invoices WHERE idempotency_key = ? AND status = ?
	`), key, domain.StatusCommitted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("invoice with idempotency key", key)
	}
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// List pages committed invoices newest first. search matches the invoice
// number or the customer name, case-insensitively.
func (r *InvoiceRepo) List(ctx context.Context, page, limit int, search string) ([]domain.Invoice, int, error) {
	where := `i.status = ?`
	args := []any{domain.StatusCommitted}
	if search != "" {
		pat := likePattern(search)
		where += ` AND (LOWER(i.invoice_no) LIKE ? ESCAPE '\' OR LOWER(c.name) LIKE ? ESCAPE '\')`
		args = append(args, pat, pat)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`
	  SELECT COUNT(*) FROM invoices i
	  LEFT JOIN customers c ON c.id = i.customer_id
	  WHERE `+where), args...); err != nil {
		return nil, 0, err
	}

	var rows []invoiceRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(invoiceSelect+`
	  WHERE `+where+`
	  ORDER BY i.created_at DESC, i.seq DESC
	  LIMIT ? OFFSET ?`), append(args, limit, offset(page, limit))...); err != nil {
		return nil, 0, err
	}

	out := make([]domain.Invoice, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.compose())
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// attachItems loads the lines for every invoice in one IN query.
func (r *InvoiceRepo) attachItems(ctx context.Context, invs []domain.Invoice) error {
	if len(invs) == 0 {
		return nil
	}
	ids := make([]string, len(invs))
	pos := make(map[string]int, len(invs))
	for i, inv := range invs {
		ids[i] = inv.ID
		pos[inv.ID] = i
	}
	query, args, err := sqlx.In(`
	  SELECT id, invoice_id, line_no, product_id, name, quantity, unit_price, total
	  FROM invoice_items
	  WHERE invoice_id IN (?)
	  ORDER BY invoice_id, line_no
	`, ids)
	if err != nil {
		return err
	}
	var items []domain.InvoiceItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, it := range items {
		i := pos[it.InvoiceID]
		invs[i].Items = append(invs[i].Items, it)
	}
	return nil
}

// ---------- Maintenance ----------

// DeletePendingBefore removes PENDING headers created before cutoff, along
// with their items, and reports how many headers went away.
func (r *InvoiceRepo) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var ids []string
		if err := tx.SelectContext(ctx, &ids, tx.Rebind(`
		  SELECT id FROM invoices WHERE status = ? AND created_at < ?
		`), domain.StatusPending, Timestamp(cutoff)); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		query, args, err := sqlx.In(`DELETE FROM invoice_items WHERE invoice_id IN (?)`, ids)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return err
		}
		query, args, err = sqlx.In(`DELETE FROM invoices WHERE id IN (?) AND status = ?`, ids, domain.StatusPending)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}
