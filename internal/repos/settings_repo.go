package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"storebill/internal/domain"
)

// settingsID keys the single store_settings row.
const settingsID = "default"

type SettingsRepo struct{ db *sqlx.DB }

func NewSettingsRepo(db *sqlx.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// DefaultSettings is what a fresh store shows before anyone edits its profile.
func DefaultSettings() domain.StoreSettings {
	addr, phone := "123, Main Street", "9999999999"
	return domain.StoreSettings{ID: settingsID, Name: "N2H Enterprises", Address: &addr, Phone: &phone}
}

// Get returns the store profile, creating the defaults on first read.
func (r *SettingsRepo) Get(ctx context.Context) (*domain.StoreSettings, error) {
	var s domain.StoreSettings
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`
	  SELECT id, name, address, phone, email, gstin FROM store_settings WHERE id = ?
	`), settingsID)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	s = DefaultSettings()
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO store_settings(id, name, address, phone, email, gstin)
	  VALUES(?,?,?,?,?,?)
	  ON CONFLICT(id) DO NOTHING
	`), s.ID, s.Name, s.Address, s.Phone, s.Email, s.GSTIN); err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert replaces the store profile.
func (r *SettingsRepo) Upsert(ctx context.Context, s *domain.StoreSettings) error {
	s.ID = settingsID
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO store_settings(id, name, address, phone, email, gstin)
	  VALUES(?,?,?,?,?,?)
	  ON CONFLICT(id) DO UPDATE SET
	    name = excluded.name, address = excluded.address, phone = excluded.phone,
	    email = excluded.email, gstin = excluded.gstin
	`), s.ID, s.Name, s.Address, s.Phone, s.Email, s.GSTIN)
	return err
}
