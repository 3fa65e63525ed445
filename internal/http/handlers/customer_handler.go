package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storebill/internal/domain"
	applog "storebill/internal/log"
	"storebill/internal/services"
	"storebill/internal/validate"
)

type CustomerHandler struct {
	Customers *services.CustomerService
}

// GET /api/customers
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	page, limit, search, ok := listParams(c)
	if !ok {
		return badRequest(c, "Invalid search")
	}
	out, err := h.Customers.List(c.UserContext(), page, limit, search)
	if err != nil {
		applog.Error(c, "customer.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch customers"})
	}
	return c.JSON(out)
}

// GET /api/customers/:id
func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundJSON(c, "Customer")
	}
	cu, err := h.Customers.Get(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFoundJSON(c, "Customer")
	}
	if err != nil {
		applog.Error(c, "customer.get.fail", err, map[string]any{"customer_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch customer"})
	}
	return c.JSON(cu)
}

// POST /api/customers. A duplicate phone is a soft failure: 200 with success=false.
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in services.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	cu, err := h.Customers.Create(c.UserContext(), in)
	if errors.Is(err, domain.ErrDuplicatePhone) {
		applog.Info(c, "customer.create.duplicate", map[string]any{"phone": in.Phone})
		return c.JSON(fiber.Map{"success": false, "message": "Customer with this phone already exists"})
	}
	if err != nil {
		return failJSON(c, "customer.create", err, "Failed to create customer")
	}
	applog.Audit(c, "customer.create", map[string]any{"customer_id": cu.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": cu})
}

// PUT /api/customers/:id
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundJSON(c, "Customer")
	}
	var in services.CustomerInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	err := h.Customers.Update(c.UserContext(), id, in)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		return notFoundJSON(c, "Customer")
	case errors.Is(err, domain.ErrDuplicatePhone):
		return c.JSON(fiber.Map{"success": false, "message": "Customer with this phone already exists"})
	default:
		return failJSON(c, "customer.update", err, "Failed to update customer")
	}
	applog.Audit(c, "customer.update", map[string]any{"customer_id": id})
	return c.JSON(fiber.Map{"success": true})
}

// DELETE /api/customers/:id
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundJSON(c, "Customer")
	}
	if err := h.Customers.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFoundJSON(c, "Customer")
		}
		return failJSON(c, "customer.delete", err, "Failed to delete customer")
	}
	applog.Audit(c, "customer.delete", map[string]any{"customer_id": id})
	return c.JSON(fiber.Map{"success": true})
}

// ---------- Web ----------

// GET /customers
func (h *CustomerHandler) Page(c *fiber.Ctx) error {
	return h.renderPage(c, fiber.StatusOK, "")
}

func (h *CustomerHandler) renderPage(c *fiber.Ctx, status int, msg string) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		q = ""
	}
	page := validate.Int(c.Query("page"), 1, 0)
	out, err := h.Customers.List(c.UserContext(), page, 50, q)
	if err != nil {
		return err
	}
	return render(c.Status(status), "customers", fiber.Map{
		"Customers": out.Customers,
		"Meta":      out.Metadata,
		"Q":         q,
		"Err":       msg,
	})
}

// POST /customers
func (h *CustomerHandler) CreateForm(c *fiber.Ctx) error {
	in := services.CustomerInput{Name: c.FormValue("name"), Phone: c.FormValue("phone")}
	if a := c.FormValue("address"); a != "" {
		in.Address = &a
	}
	cu, err := h.Customers.Create(c.UserContext(), in)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicatePhone):
		return h.renderPage(c, fiber.StatusOK, "Customer with this phone already exists")
	case errors.Is(err, domain.ErrValidation):
		return h.renderPage(c, fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
	applog.Audit(c, "customer.create", map[string]any{"customer_id": cu.ID})
	return c.Redirect("/customers")
}

func customerNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Customer not found"})
}

// GET /customers/:id
func (h *CustomerHandler) EditPage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return customerNotFound(c)
	}
	cu, err := h.Customers.Get(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return customerNotFound(c)
	}
	if err != nil {
		return err
	}
	return render(c, "customer_edit", fiber.Map{"Customer": cu})
}

// POST /customers/:id
func (h *CustomerHandler) UpdateForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return customerNotFound(c)
	}
	in := services.CustomerInput{Name: c.FormValue("name"), Phone: c.FormValue("phone")}
	if a := c.FormValue("address"); a != "" {
		in.Address = &a
	}

	var msg string
	status := fiber.StatusBadRequest
	err := h.Customers.Update(c.UserContext(), id, in)
	switch {
	case err == nil:
		applog.Audit(c, "customer.update", map[string]any{"customer_id": id})
		return c.Redirect("/customers")
	case errors.Is(err, domain.ErrNotFound):
		return customerNotFound(c)
	case errors.Is(err, domain.ErrDuplicatePhone):
		msg, status = "Customer with this phone already exists", fiber.StatusOK
	case errors.Is(err, domain.ErrValidation):
		msg = err.Error()
	default:
		return err
	}
	// keep what the user typed
	form := &domain.Customer{ID: id, Name: in.Name, Phone: in.Phone, Address: in.Address}
	return render(c.Status(status), "customer_edit", fiber.Map{"Customer": form, "Err": msg})
}
