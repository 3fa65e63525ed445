package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"storebill/internal/domain"
	"storebill/internal/repos"
	"storebill/internal/validate"
)

type CustomerInput struct {
	Name    string  `json:"name" validate:"required,max=120"`
	Phone   string  `json:"phone" validate:"required,phone"`
	Address *string `json:"address" validate:"omitempty,max=300"`
}

type CustomerPage struct {
	Customers []domain.Customer `json:"customers"`
	Metadata  domain.PageMeta   `json:"metadata"`
}

type CustomerService struct {
	Customers *repos.CustomerRepo
}

func NewCustomerService(customers *repos.CustomerRepo) *CustomerService {
	return &CustomerService{Customers: customers}
}

func (in *CustomerInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Address != nil && strings.TrimSpace(*in.Address) == "" {
		in.Address = nil
	}
}

func (s *CustomerService) List(ctx context.Context, page, limit int, search string) (CustomerPage, error) {
	page, limit = pageBounds(page, limit, 20)
	out, total, err := s.Customers.List(ctx, page, limit, search)
	if err != nil {
		return CustomerPage{}, err
	}
	return CustomerPage{Customers: out, Metadata: domain.NewPageMeta(total, page, limit)}, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.Customers.Get(ctx, id)
}

// Create rejects a phone number that is already on file with ErrDuplicatePhone.
func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.Customers.ByPhone(ctx, in.Phone); err == nil {
		return nil, domain.ErrDuplicatePhone
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	c := &domain.Customer{ID: uuid.NewString(), Name: in.Name, Phone: in.Phone, Address: in.Address}
	if err := s.Customers.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, id string, in CustomerInput) error {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return err
	}
	return s.Customers.Update(ctx, &domain.Customer{ID: id, Name: in.Name, Phone: in.Phone, Address: in.Address})
}

func (s *CustomerService) Delete(ctx context.Context, id string) error {
	return s.Customers.Delete(ctx, id)
}
