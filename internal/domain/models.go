package domain

const (
	UnitBox  = "BOX"
	UnitGram = "GRAM"

	PaymentCash = "CASH"
	PaymentUPI  = "UPI"

	StatusPending   = "PENDING"
	StatusCommitted = "COMMITTED"
)

type Product struct {
	ID        string   `db:"id" json:"id"`
	Name      string   `db:"name" json:"name"`
	CostPrice float64  `db:"cost_price" json:"costPrice"`
	MRP       float64  `db:"mrp" json:"mrp"`
	UnitType  string   `db:"unit_type" json:"unitType"` // BOX | GRAM
	Weight    *float64 `db:"weight" json:"weight,omitempty"`
	IsActive  bool     `db:"is_active" json:"isActive"`
	CreatedAt string   `db:"created_at" json:"createdAt"`
	UpdatedAt string   `db:"updated_at" json:"updatedAt"`
}

type Customer struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Phone     string  `db:"phone" json:"phone"`
	Address   *string `db:"address" json:"address"`
	CreatedAt string  `db:"created_at" json:"createdAt"`
	UpdatedAt string  `db:"updated_at" json:"updatedAt"`
}

// Invoice is the composed read model: header plus joined customer and items.
type Invoice struct {
	ID             string        `db:"id" json:"id"`
	InvoiceNo      string        `db:"invoice_no" json:"invoiceNo"`
	Seq            int64         `db:"seq" json:"-"`
	CustomerID     *string       `db:"customer_id" json:"customerId"`
	Subtotal       float64       `db:"subtotal" json:"subtotal"`
	Discount       float64       `db:"discount" json:"discount"`
	TaxAmount      float64       `db:"tax_amount" json:"taxAmount"`
	TotalAmount    float64       `db:"total_amount" json:"totalAmount"`
	PaymentMode    string        `db:"payment_mode" json:"paymentMode"` // CASH | UPI
	Status         string        `db:"status" json:"status"`
	IdempotencyKey *string       `db:"idempotency_key" json:"-"`
	CreatedAt      string        `db:"created_at" json:"createdAt"`
	UpdatedAt      string        `db:"updated_at" json:"updatedAt"`
	Customer       *Customer     `db:"-" json:"customer"`
	Items          []InvoiceItem `db:"-" json:"items"`
}

type InvoiceItem struct {
	ID        string  `db:"id" json:"id"`
	InvoiceID string  `db:"invoice_id" json:"invoiceId"`
	LineNo    int     `db:"line_no" json:"-"`
	ProductID string  `db:"product_id" json:"productId"`
	Name      string  `db:"name" json:"name"`
	Quantity  int     `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unitPrice"`
	Total     float64 `db:"total" json:"total"`
}

type StoreSettings struct {
	ID      string  `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Address *string `db:"address" json:"address"`
	Phone   *string `db:"phone" json:"phone"`
	Email   *string `db:"email" json:"email"`
	GSTIN   *string `db:"gstin" json:"gstin"`
}

// PageMeta accompanies every paginated list.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewPageMeta(total, page, limit int) PageMeta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PageMeta{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
