package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"storebill/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, name, cost_price, mrp, unit_type, weight, is_active, created_at, updated_at`

// ProductPatch carries the fields of a partial update; nil means unchanged.
type ProductPatch struct {
	Name      *string
	CostPrice *float64
	MRP       *float64
	UnitType  *string
	Weight    *float64
	IsActive  *bool
}

// List pages active products newest first, filtered by a name substring.
func (r *ProductRepo) List(ctx context.Context, page, limit int, search string) ([]domain.Product, int, error) {
	where := `is_active = ?`
	args := []any{true}
	if search != "" {
		where += ` AND LOWER(name) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(search))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM products WHERE `+where), args...); err != nil {
		return nil, 0, err
	}

	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT `+productCols+`
	  FROM products
	  WHERE `+where+`
	  ORDER BY created_at DESC, name
	  LIMIT ? OFFSET ?`), append(args, limit, offset(page, limit))...)
	return out, total, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productCols+` FROM products WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("product", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	ts := now()
	p.CreatedAt, p.UpdatedAt, p.IsActive = ts, ts, true
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO products(`+productCols+`)
	  VALUES(?,?,?,?,?,?,?,?,?)
	`), p.ID, p.Name, p.CostPrice, p.MRP, p.UnitType, p.Weight, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProductRepo) Update(ctx context.Context, id string, patch ProductPatch) error {
	sets := `updated_at = ?`
	args := []any{now()}
	add := func(col string, v any) {
		sets += `, ` + col + ` = ?`
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.CostPrice != nil {
		add("cost_price", *patch.CostPrice)
	}
	if patch.MRP != nil {
		add("mrp", *patch.MRP)
	}
	if patch.UnitType != nil {
		add("unit_type", *patch.UnitType)
	}
	if patch.Weight != nil {
		add("weight", *patch.Weight)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET `+sets+` WHERE id = ?`), append(args, id)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("product", id)
	}
	return nil
}

// Deactivate is the only delete products support.
func (r *ProductRepo) Deactivate(ctx context.Context, id string) error {
	off := false
	return r.Update(ctx, id, ProductPatch{IsActive: &off})
}

// CountActive counts how many of ids name active products, reading through tx.
func (r *ProductRepo) CountActive(ctx context.Context, tx *sqlx.Tx, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM products WHERE is_active = ? AND id IN (?)`, true, ids)
	if err != nil {
		return 0, err
	}
	var n int
	err = tx.GetContext(ctx, &n, tx.Rebind(query), args...)
	return n, err
}
