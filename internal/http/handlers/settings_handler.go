package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storebill/internal/domain"
	applog "storebill/internal/log"
	"storebill/internal/services"
)

type SettingsHandler struct {
	Settings *services.SettingsService
}

// GET /api/settings
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	st, err := h.Settings.Get(c.UserContext())
	if err != nil {
		applog.Error(c, "settings.get.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch settings"})
	}
	return c.JSON(st)
}

// PUT /api/settings
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var in services.SettingsInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	st, err := h.Settings.Update(c.UserContext(), in)
	if err != nil {
		return failJSON(c, "settings.update", err, "Failed to update settings")
	}
	applog.Audit(c, "settings.update", nil)
	return c.JSON(fiber.Map{"success": true, "data": st})
}

// GET /settings
func (h *SettingsHandler) Page(c *fiber.Ctx) error {
	st, err := h.Settings.Get(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "settings", fiber.Map{"Store": st, "Saved": c.Query("saved") == "1"})
}

// POST /settings
func (h *SettingsHandler) UpdateForm(c *fiber.Ctx) error {
	opt := func(k string) *string {
		v := c.FormValue(k)
		return &v
	}
	in := services.SettingsInput{
		Name:    c.FormValue("name"),
		Address: opt("address"),
		Phone:   opt("phone"),
		Email:   opt("email"),
		GSTIN:   opt("gstin"),
	}
	if _, err := h.Settings.Update(c.UserContext(), in); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			st := &domain.StoreSettings{Name: in.Name, Address: in.Address, Phone: in.Phone, Email: in.Email, GSTIN: in.GSTIN}
			return render(c.Status(fiber.StatusBadRequest), "settings", fiber.Map{"Store": st, "Err": err.Error()})
		}
		return err
	}
	applog.Audit(c, "settings.update", nil)
	return c.Redirect("/settings?saved=1")
}
