package services

import (
	"context"
	"strings"

	"storebill/internal/domain"
	"storebill/internal/repos"
	"storebill/internal/validate"
)

type SettingsInput struct {
	Name    string  `json:"name" validate:"required,max=120"`
	Address *string `json:"address" validate:"omitempty,max=300"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Email   *string `json:"email" validate:"omitempty,email"`
	GSTIN   *string `json:"gstin" validate:"omitempty,len=15,alphanum"`
}

type SettingsService struct {
	Settings *repos.SettingsRepo
}

func NewSettingsService(settings *repos.SettingsRepo) *SettingsService {
	return &SettingsService{Settings: settings}
}

func (s *SettingsService) Get(ctx context.Context) (*domain.StoreSettings, error) {
	return s.Settings.Get(ctx)
}

func (s *SettingsService) Update(ctx context.Context, in SettingsInput) (*domain.StoreSettings, error) {
	in.Name = strings.TrimSpace(in.Name)
	for _, p := range []**string{&in.Address, &in.Phone, &in.Email, &in.GSTIN} {
		if *p != nil && strings.TrimSpace(**p) == "" {
			*p = nil
		}
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	st := &domain.StoreSettings{Name: in.Name, Address: in.Address, Phone: in.Phone, Email: in.Email, GSTIN: in.GSTIN}
	if err := s.Settings.Upsert(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}
