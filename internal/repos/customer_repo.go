package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"storebill/internal/domain"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerCols = `id, name, phone, address, created_at, updated_at`

func (r *CustomerRepo) List(ctx context.Context, page, limit int, search string) ([]domain.Customer, int, error) {
	where := `1 = 1`
	args := []any{}
	if search != "" {
		pat := likePattern(search)
		where = `(LOWER(name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\')`
		args = append(args, pat, pat)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM customers WHERE `+where), args...); err != nil {
		return nil, 0, err
	}

	out := []domain.Customer{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+customerCols+`
	  FROM customers
	  WHERE `+where+`
	  ORDER BY created_at DESC, name
	  LIMIT ? OFFSET ?`), append(args, limit, offset(page, limit))...)
	return out, total, err
}

func (r *CustomerRepo) Get(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`SELECT `+customerCols+` FROM customers WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("customer", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepo) ByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`SELECT `+customerCols+` FROM customers WHERE phone = ?`), phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("customer with phone", phone)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create maps a phone collision, including one lost to a concurrent insert,
// to domain.ErrDuplicatePhone.
func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	ts := now()
	c.CreatedAt, c.UpdatedAt = ts, ts
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO customers(`+customerCols+`) VALUES(?,?,?,?,?,?)
	`), c.ID, c.Name, c.Phone, c.Address, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrDuplicatePhone
	}
	return err
}

func (r *CustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	c.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  UPDATE customers SET name = ?, phone = ?, address = ?, updated_at = ? WHERE id = ?
	`), c.Name, c.Phone, c.Address, c.UpdatedAt, c.ID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicatePhone
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("customer", c.ID)
	}
	return nil
}

// Delete is a hard delete; invoices keep the dangling customer_id.
func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM customers WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("customer", id)
	}
	return nil
}

// ExistsTx checks a customer reference from inside the creation tx.
func (r *CustomerRepo) ExistsTx(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	var n int
	err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM customers WHERE id = ?`), id)
	return n > 0, err
}
