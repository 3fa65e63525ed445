package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"storebill/internal/domain"
	applog "storebill/internal/log"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// tsLayout is fixed-width so timestamps sort lexicographically in TEXT columns.
const tsLayout = "2006-01-02T15:04:05.000000Z"

func Timestamp(t time.Time) string { return t.UTC().Format(tsLayout) }

func now() string { return Timestamp(time.Now()) }

// OpenDB connects, applies the schema and seeds the demo catalog.
// maxConns only applies to postgres; sqlite is pinned to a single connection
// so writers serialize and ":memory:" databases stay coherent.
func OpenDB(driver, dsn string, maxConns int) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverSQLite:
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
			_ = db.Close()
			return nil, err
		}
	default:
		if maxConns > 0 {
			db.SetMaxOpenConns(maxConns)
		}
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  cost_price DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (cost_price >= 0),
  mrp DOUBLE PRECISION NOT NULL CHECK (mrp >= 0),
  unit_type TEXT NOT NULL CHECK (unit_type IN ('BOX','GRAM')),
  weight DOUBLE PRECISION,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_name       ON products(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Customers
CREATE TABLE IF NOT EXISTS customers(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  address TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_phone ON customers(phone);
CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(LOWER(name));

-- Invoices (customer_id is a weak reference: customers may be deleted)
CREATE TABLE IF NOT EXISTS invoices(
  id TEXT PRIMARY KEY,
  invoice_no TEXT NOT NULL,
  seq BIGINT NOT NULL,
  customer_id TEXT,
  subtotal DOUBLE PRECISION NOT NULL,
  discount DOUBLE PRECISION NOT NULL DEFAULT 0,
  tax_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_amount DOUBLE PRECISION NOT NULL,
  payment_mode TEXT NOT NULL CHECK (payment_mode IN ('CASH','UPI')),
  status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING','COMMITTED')),
  idempotency_key TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_no          ON invoices(invoice_no);
CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_seq         ON invoices(seq);
CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_idempotency ON invoices(idempotency_key);
CREATE INDEX IF NOT EXISTS idx_invoices_created_at ON invoices(created_at);
CREATE INDEX IF NOT EXISTS idx_invoices_status     ON invoices(status);

-- Invoice items (product_id is a weak reference)
CREATE TABLE IF NOT EXISTS invoice_items(
  id TEXT PRIMARY KEY,
  invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
  line_no INTEGER NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  unit_price DOUBLE PRECISION NOT NULL CHECK (unit_price >= 0),
  total DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items(invoice_id);

-- Named counters (invoice numbering)
CREATE TABLE IF NOT EXISTS counters(
  name TEXT PRIMARY KEY,
  value BIGINT NOT NULL
);

-- Store settings (singleton)
CREATE TABLE IF NOT EXISTS store_settings(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT,
  phone TEXT,
  email TEXT,
  gstin TEXT
);

-- Users
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);
`
	_, err := db.Exec(schema)
	return err
}

type seedProduct struct {
	name      string
	costPrice float64
	mrp       float64
	unitType  string
	weight    float64
}

var demoProducts = []seedProduct{
	{"Peanut Laddu", 45, 60, domain.UnitBox, 6},
	{"Sesame Laddu", 55, 70, domain.UnitBox, 1},
	{"Coconut Laddu", 65, 80, domain.UnitBox, 1},
	{"Dry Fruit Laddu", 90, 110, domain.UnitBox, 1},
	{"Moong Dal Laddu", 75, 90, domain.UnitBox, 1},
	{"Moringa Soup Mix", 90, 110, domain.UnitGram, 100},
	{"Kollu Soup Mix", 50, 70, domain.UnitGram, 100},
	{"Herbal Tea", 75, 90, domain.UnitGram, 100},
	{"Idli Podi", 40, 55, domain.UnitGram, 100},
	{"Garlic Idli Podi", 50, 65, domain.UnitGram, 100},
	{"Kasturi Manjal", 190, 220, domain.UnitGram, 250},
	{"Sukku Malli Coffee", 55, 70, domain.UnitGram, 100},
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.L().Info("seed.products", zap.Int("count", len(demoProducts)))

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	for _, p := range demoProducts {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO products(id,name,cost_price,mrp,unit_type,weight,is_active,created_at,updated_at)
			VALUES(?,?,?,?,?,?,?,?,?)
		`), uuid.NewString(), p.name, p.costPrice, p.mrp, p.unitType, p.weight, true, ts, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SeedAdmin ensures the "admin" account exists (idempotent).
func SeedAdmin(db *sqlx.DB, password string) error {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	ts := now()
	_, err = db.Exec(db.Rebind(`
		INSERT INTO users(id,username,name,password_hash,role,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(username) DO NOTHING
	`), uuid.NewString(), "admin", "Admin User", string(h), domain.RoleAdmin, ts, ts)
	return err
}

// InTx runs fn inside a transaction, committing on nil and rolling back otherwise.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// likePattern builds a case-insensitive substring pattern for "LIKE ? ESCAPE '\'".
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, domain.ErrNotFound)
}
