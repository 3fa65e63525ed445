package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storebill/internal/domain"
	"storebill/internal/repos"
	"storebill/internal/validate"
)

type ProductInput struct {
	Name      string   `json:"name" validate:"required,max=120"`
	CostPrice float64  `json:"costPrice" validate:"gte=0"`
	MRP       float64  `json:"mrp" validate:"gte=0"`
	UnitType  string   `json:"unitType" validate:"required,oneof=BOX GRAM"`
	Weight    *float64 `json:"weight" validate:"omitempty,gte=0"`
}

// ProductUpdate is a partial update; absent fields stay as they are.
type ProductUpdate struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=120"`
	CostPrice *float64 `json:"costPrice" validate:"omitempty,gte=0"`
	MRP       *float64 `json:"mrp" validate:"omitempty,gte=0"`
	UnitType  *string  `json:"unitType" validate:"omitempty,oneof=BOX GRAM"`
	Weight    *float64 `json:"weight" validate:"omitempty,gte=0"`
	IsActive  *bool    `json:"isActive"`
}

type ProductPage struct {
	Products []domain.Product `json:"products"`
	Metadata domain.PageMeta  `json:"metadata"`
}

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) List(ctx context.Context, page, limit int, search string) (ProductPage, error) {
	page, limit = pageBounds(page, limit, 100)
	out, total, err := s.Prods.List(ctx, page, limit, search)
	if err != nil {
		return ProductPage{}, err
	}
	return ProductPage{Products: out, Metadata: domain.NewPageMeta(total, page, limit)}, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p := &domain.Product{
		ID:        uuid.NewString(),
		Name:      in.Name,
		CostPrice: in.CostPrice,
		MRP:       in.MRP,
		UnitType:  in.UnitType,
		Weight:    in.Weight,
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, in ProductUpdate) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return fmt.Errorf("%w: name is required", domain.ErrValidation)
		}
		in.Name = &name
	}
	if err := validate.Struct(in); err != nil {
		return err
	}
	return s.Prods.Update(ctx, id, repos.ProductPatch{
		Name:      in.Name,
		CostPrice: in.CostPrice,
		MRP:       in.MRP,
		UnitType:  in.UnitType,
		Weight:    in.Weight,
		IsActive:  in.IsActive,
	})
}

// Delete deactivates the product; past invoices keep referring to it.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return s.Prods.Deactivate(ctx, id)
}
