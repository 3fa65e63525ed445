package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

func formatMoney(v float64) string { return fmt.Sprintf("%.2f", v) }

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject user if present
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	// Token the CSRF middleware put into Locals; the cookie is a fallback
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies(csrfCookie)
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}
