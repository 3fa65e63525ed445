package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storebill/internal/domain"
	applog "storebill/internal/log"
	"storebill/internal/services"
	"storebill/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	page, limit, search, ok := listParams(c)
	if !ok {
		return badRequest(c, "Invalid search")
	}
	out, err := h.Catalog.List(c.UserContext(), page, limit, search)
	if err != nil {
		applog.Error(c, "product.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch products"})
	}
	return c.JSON(out)
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundJSON(c, "Product")
	}
	p, err := h.Catalog.Get(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFoundJSON(c, "Product")
	}
	if err != nil {
		applog.Error(c, "product.get.fail", err, map[string]any{"product_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch product"})
	}
	return c.JSON(p)
}

// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	p, err := h.Catalog.Create(c.UserContext(), in)
	if err != nil {
		return failJSON(c, "product.create", err, "Failed to create product")
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "name": p.Name})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": p})
}

// PUT /api/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundJSON(c, "Product")
	}
	var in services.ProductUpdate
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.Catalog.Update(c.UserContext(), id, in); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFoundJSON(c, "Product")
		}
		return failJSON(c, "product.update", err, "Failed to update product")
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"success": true})
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundJSON(c, "Product")
	}
	if err := h.Catalog.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFoundJSON(c, "Product")
		}
		return failJSON(c, "product.delete", err, "Failed to delete product")
	}
	applog.Audit(c, "product.deactivate", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"success": true})
}

// ---------- Web ----------

// GET /products
func (h *ProductHandler) Page(c *fiber.Ctx) error {
	return h.renderPage(c, fiber.StatusOK, "")
}

func (h *ProductHandler) renderPage(c *fiber.Ctx, status int, msg string) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		q = ""
	}
	out, err := h.Catalog.List(c.UserContext(), 1, 200, q)
	if err != nil {
		return err
	}
	return render(c.Status(status), "products", fiber.Map{"Products": out.Products, "Q": q, "Err": msg})
}

// POST /products
func (h *ProductHandler) CreateForm(c *fiber.Ctx) error {
	in := services.ProductInput{
		Name:      c.FormValue("name"),
		CostPrice: validate.Float(c.FormValue("costPrice")),
		MRP:       validate.Float(c.FormValue("mrp")),
		UnitType:  c.FormValue("unitType"),
	}
	if w := c.FormValue("weight"); w != "" {
		f := validate.Float(w)
		in.Weight = &f
	}
	p, err := h.Catalog.Create(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return h.renderPage(c, fiber.StatusBadRequest, err.Error())
		}
		return err
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "name": p.Name})
	return c.Redirect("/products")
}

// POST /products/:id/deactivate
func (h *ProductHandler) DeactivateForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Product not found"})
	}
	if err := h.Catalog.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Product not found"})
		}
		return err
	}
	applog.Audit(c, "product.deactivate", map[string]any{"product_id": id})
	return c.Redirect("/products")
}

func productNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Product not found"})
}

// GET /products/:id
func (h *ProductHandler) EditPage(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return productNotFound(c)
	}
	p, err := h.Catalog.Get(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return productNotFound(c)
	}
	if err != nil {
		return err
	}
	return render(c, "product_edit", fiber.Map{"Product": p})
}

// POST /products/:id
func (h *ProductHandler) UpdateForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return productNotFound(c)
	}
	name := c.FormValue("name")
	cost := validate.Float(c.FormValue("costPrice"))
	mrp := validate.Float(c.FormValue("mrp"))
	unit := c.FormValue("unitType")
	in := services.ProductUpdate{Name: &name, CostPrice: &cost, MRP: &mrp, UnitType: &unit}
	if w := c.FormValue("weight"); w != "" {
		f := validate.Float(w)
		in.Weight = &f
	}

	err := h.Catalog.Update(c.UserContext(), id, in)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		return productNotFound(c)
	case errors.Is(err, domain.ErrValidation):
		p, gerr := h.Catalog.Get(c.UserContext(), id)
		if gerr != nil {
			return gerr
		}
		return render(c.Status(fiber.StatusBadRequest), "product_edit", fiber.Map{"Product": p, "Err": err.Error()})
	default:
		return err
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": id})
	return c.Redirect("/products")
}
