package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"storebill/internal/domain"
	applog "storebill/internal/log"
	"storebill/internal/services"
	"storebill/internal/validate"
)

type InvoiceHandler struct {
	Invoices  *services.InvoiceService
	Catalog   *services.CatalogService
	Customers *services.CustomerService
	Settings  *services.SettingsService
}

// ---------- JSON API ----------

// POST /api/invoices
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in services.CreateInvoiceInput
	if err := c.BodyParser(&in); err != nil {
		applog.Info(c, "invoice.create.rejected", map[string]any{"reason": "bad_body"})
		return badRequest(c, "Invalid request body")
	}
	if key := strings.TrimSpace(c.Get("Idempotency-Key")); key != "" {
		in.IdempotencyKey = key
	}
	inv, err := h.Invoices.Create(c.UserContext(), in)
	if err != nil {
		return failJSON(c, "invoice.create", err, "Failed to create invoice")
	}
	applog.Audit(c, "invoice.create", map[string]any{"invoice_id": inv.ID, "invoice_no": inv.InvoiceNo, "total": inv.TotalAmount})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": inv})
}

// GET /api/invoices
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	page, limit, search, ok := listParams(c)
	if !ok {
		return badRequest(c, "Invalid search")
	}
	out, err := h.Invoices.List(c.UserContext(), page, limit, search)
	if err != nil {
		applog.Error(c, "invoice.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch invoices"})
	}
	return c.JSON(out)
}

// GET /api/invoices/:id
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundJSON(c, "Invoice")
	}
	inv, err := h.Invoices.Get(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFoundJSON(c, "Invoice")
	}
	if err != nil {
		applog.Error(c, "invoice.get.fail", err, map[string]any{"invoice_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch invoice"})
	}
	return c.JSON(inv)
}

// ---------- Web ----------

// GET /billing
func (h *InvoiceHandler) BillingPage(c *fiber.Ctx) error {
	return h.renderBilling(c, fiber.StatusOK, "")
}

func (h *InvoiceHandler) renderBilling(c *fiber.Ctx, status int, msg string) error {
	ctx := c.UserContext()
	prods, err := h.Catalog.List(ctx, 1, 200, "")
	if err != nil {
		return err
	}
	custs, err := h.Customers.List(ctx, 1, 200, "")
	if err != nil {
		return err
	}
	return render(c.Status(status), "billing", fiber.Map{
		"Products":       prods.Products,
		"Customers":      custs.Customers,
		"IdempotencyKey": uuid.NewString(),
		"Err":            msg,
	})
}

// POST /billing prices the cart server-side from current MRPs, then issues
// the invoice through the same service as the API.
func (h *InvoiceHandler) Checkout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	args := c.Request().PostArgs()
	ids := args.PeekMulti("productId")
	qtys := args.PeekMulti("quantity")
	if len(ids) == 0 || len(ids) != len(qtys) {
		return h.renderBilling(c, fiber.StatusBadRequest, "Add at least one product")
	}

	var lines []services.Line
	var items []services.ItemInput
	for i := range ids {
		id, ok := validate.ID(string(ids[i]))
		qty, err := strconv.Atoi(strings.TrimSpace(string(qtys[i])))
		if !ok || err != nil || qty < 0 {
			return h.renderBilling(c, fiber.StatusBadRequest, "Invalid cart line")
		}
		if qty == 0 {
			continue
		}
		p, err := h.Catalog.Get(ctx, id)
		if err != nil || !p.IsActive {
			return h.renderBilling(c, fiber.StatusBadRequest, "Product is not available")
		}
		lines = append(lines, services.Line{UnitPrice: p.MRP, Quantity: qty})
		items = append(items, services.ItemInput{ProductID: p.ID, Name: p.Name, Quantity: qty, UnitPrice: p.MRP})
	}

	if len(items) == 0 {
		return h.renderBilling(c, fiber.StatusBadRequest, "Add at least one product")
	}

	t := services.ComputeTotals(lines, validate.Float(c.FormValue("discount")), validate.Float(c.FormValue("gst")))
	for i := range items {
		items[i].Total = services.LineTotal(items[i].UnitPrice, items[i].Quantity)
	}
	in := services.CreateInvoiceInput{
		Items:          items,
		Subtotal:       t.Subtotal,
		Discount:       t.Discount,
		TaxAmount:      t.TaxAmount,
		TotalAmount:    t.TotalAmount,
		PaymentMode:    c.FormValue("paymentMode", domain.PaymentCash),
		IdempotencyKey: c.FormValue("idempotencyKey"),
	}
	if cid := c.FormValue("customerId"); cid != "" {
		in.CustomerID = &cid
	}

	inv, err := h.Invoices.Create(ctx, in)
	if err != nil {
		if isClientError(err) {
			applog.Info(c, "invoice.checkout.rejected", map[string]any{"reason": err.Error()})
			return h.renderBilling(c, fiber.StatusBadRequest, clientMessage(err))
		}
		applog.Error(c, "invoice.checkout.fail", err, nil)
		return h.renderBilling(c, fiber.StatusInternalServerError, "Failed to create invoice")
	}
	applog.Audit(c, "invoice.checkout", map[string]any{"invoice_id": inv.ID, "invoice_no": inv.InvoiceNo})
	return c.Redirect("/invoices/" + inv.ID)
}

// GET /invoices
func (h *InvoiceHandler) ListPage(c *fiber.Ctx) error {
	page := validate.Int(c.Query("page"), 1, 0)
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		applog.Security(c, "input.invalid.search", map[string]any{"q": c.Query("q")})
		q = ""
	}
	out, err := h.Invoices.List(c.UserContext(), page, 20, q)
	if err != nil {
		return err
	}
	return render(c, "invoices", fiber.Map{
		"Invoices": out.Invoices,
		"Meta":     out.Metadata,
		"Q":        q,
		"Prev":     page - 1,
		"Next":     nextPage(out.Metadata),
	})
}

func nextPage(m domain.PageMeta) int {
	if m.Page < m.TotalPages {
		return m.Page + 1
	}
	return 0
}

// GET /invoices/:id
func (h *InvoiceHandler) Receipt(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Invoice not found"})
	}
	inv, err := h.Invoices.Get(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Invoice not found"})
	}
	if err != nil {
		return err
	}
	st, err := h.Settings.Get(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "receipt", fiber.Map{"Invoice": inv, "Store": st})
}
