package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"storebill/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`
	  SELECT id,username,name,password_hash,role FROM users WHERE LOWER(username)=LOWER(?)`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", username)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT id,username,name,password_hash,role FROM users WHERE id=?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	ts := now()
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
	  INSERT INTO users(id,username,name,password_hash,role,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?)`), u.ID, u.Username, u.Name, u.Hash, u.Role, ts, ts)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateUsername
	}
	return err
}
