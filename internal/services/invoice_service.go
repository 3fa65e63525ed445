package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storebill/internal/domain"
	"storebill/internal/metrics"
	"storebill/internal/repos"
	"storebill/internal/validate"
)

type ItemInput struct {
	ProductID string  `json:"productId" validate:"required,uuid"`
	Name      string  `json:"name" validate:"required,max=200"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
	Total     float64 `json:"total" validate:"gte=0"`
}

type CreateInvoiceInput struct {
	CustomerID     *string     `json:"customerId" validate:"omitempty,uuid"`
	Items          []ItemInput `json:"items" validate:"required,min=1,dive"`
	Subtotal       float64     `json:"subtotal" validate:"gte=0"`
	Discount       float64     `json:"discount" validate:"gte=0"`
	TaxAmount      float64     `json:"taxAmount" validate:"gte=0"`
	TotalAmount    float64     `json:"totalAmount" validate:"gte=0"`
	PaymentMode    string      `json:"paymentMode" validate:"required,oneof=CASH UPI"`
	IdempotencyKey string      `json:"idempotencyKey" validate:"omitempty,max=128"`
}

type InvoicePage struct {
	Invoices []domain.Invoice `json:"invoices"`
	Metadata domain.PageMeta  `json:"metadata"`
}

type InvoiceService struct {
	DB        *sqlx.DB
	Invoices  *repos.InvoiceRepo
	Counter   *repos.CounterRepo
	Products  *repos.ProductRepo
	Customers *repos.CustomerRepo
	Metrics   *metrics.Metrics // optional
}

func NewInvoiceService(db *sqlx.DB, invoices *repos.InvoiceRepo, counter *repos.CounterRepo,
	products *repos.ProductRepo, customers *repos.CustomerRepo, m *metrics.Metrics) *InvoiceService {
	return &InvoiceService{DB: db, Invoices: invoices, Counter: counter, Products: products, Customers: customers, Metrics: m}
}

// Create issues a new invoice. Header and items are written in one
// transaction together with the number allocation; nothing is visible to
// readers unless all of it commits. A repeated idempotency key returns the
// invoice created by the first call.
func (s *InvoiceService) Create(ctx context.Context, in CreateInvoiceInput) (*domain.Invoice, error) {
	if in.CustomerID != nil && *in.CustomerID == "" {
		in.CustomerID = nil
	}
	if err := validate.Struct(in); err != nil {
		s.Metrics.InvoiceFailed("validation")
		return nil, err
	}
	if err := CheckTotals(in); err != nil {
		s.Metrics.InvoiceFailed("totals")
		return nil, err
	}

	if in.IdempotencyKey != "" {
		prev, err := s.Invoices.ByIdempotencyKey(ctx, in.IdempotencyKey)
		if err == nil {
			return prev, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	id := uuid.NewString()
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		return s.write(ctx, tx, id, in)
	})
	if err != nil {
		// lost a race against a retry carrying the same key
		if in.IdempotencyKey != "" && !errors.Is(err, domain.ErrNotFound) {
			if prev, perr := s.Invoices.ByIdempotencyKey(ctx, in.IdempotencyKey); perr == nil {
				return prev, nil
			}
		}
		s.Metrics.InvoiceFailed(failureReason(err))
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	s.Metrics.InvoiceCreated()
	return s.Invoices.Get(ctx, id)
}

func (s *InvoiceService) write(ctx context.Context, tx *sqlx.Tx, id string, in CreateInvoiceInput) error {
	if in.CustomerID != nil {
		ok, err := s.Customers.ExistsTx(ctx, tx, *in.CustomerID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("customer %s: %w", *in.CustomerID, domain.ErrNotFound)
		}
	}

	seen := map[string]bool{}
	var productIDs []string
	for _, it := range in.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			productIDs = append(productIDs, it.ProductID)
		}
	}
	n, err := s.Products.CountActive(ctx, tx, productIDs)
	if err != nil {
		return err
	}
	if n != len(productIDs) {
		return fmt.Errorf("one or more products missing or inactive: %w", domain.ErrNotFound)
	}

	seq, invoiceNo, err := s.Counter.NextInvoiceNo(ctx, tx)
	if err != nil {
		return err
	}

	ts := repos.Timestamp(time.Now())
	header := &domain.Invoice{
		ID:          id,
		InvoiceNo:   invoiceNo,
		Seq:         seq,
		CustomerID:  in.CustomerID,
		Subtotal:    in.Subtotal,
		Discount:    in.Discount,
		TaxAmount:   in.TaxAmount,
		TotalAmount: in.TotalAmount,
		PaymentMode: in.PaymentMode,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		header.IdempotencyKey = &key
	}
	if err := s.Invoices.InsertHeader(ctx, tx, header); err != nil {
		return err
	}

	items := make([]domain.InvoiceItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = domain.InvoiceItem{
			ID:        uuid.NewString(),
			InvoiceID: id,
			LineNo:    i + 1,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.Total,
		}
	}
	if err := s.Invoices.InsertItems(ctx, tx, items); err != nil {
		return err
	}
	return s.Invoices.MarkCommitted(ctx, tx, id)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrIntegrity):
		return "integrity"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "store"
	}
}

func (s *InvoiceService) List(ctx context.Context, page, limit int, search string) (InvoicePage, error) {
	page, limit = pageBounds(page, limit, 20)
	invs, total, err := s.Invoices.List(ctx, page, limit, search)
	if err != nil {
		return InvoicePage{}, err
	}
	return InvoicePage{Invoices: invs, Metadata: domain.NewPageMeta(total, page, limit)}, nil
}

func (s *InvoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	return s.Invoices.Get(ctx, id)
}

const maxPageSize = 200

func pageBounds(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = def
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
