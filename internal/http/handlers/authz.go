package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "storebill/internal/log"
	"storebill/internal/services"
)

func setUser(c *fiber.Ctx, claims *services.UserClaims) {
	c.Locals("user", claims)
	c.Locals("userID", claims.UserID)
}

// AttachUser exposes the logged-in user (from the token cookie) to templates
// and logs without enforcing anything.
func AttachUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := c.Cookies(tokenCookie); raw != "" {
			if claims, err := auth.ParseToken(raw); err == nil {
				setUser(c, claims)
			}
		}
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(tokenCookie)
		if raw == "" {
			return c.Redirect("/login")
		}
		claims, err := auth.ParseToken(raw)
		if err != nil {
			applog.Security(c, "auth.token.invalid", map[string]any{"source": "cookie"})
			return c.Redirect("/login")
		}
		setUser(c, claims)
		return c.Next()
	}
}

// RequireToken guards the JSON API with "Authorization: Bearer <jwt>".
func RequireToken(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, raw, found := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		if !found || !strings.EqualFold(scheme, "bearer") || raw == "" {
			applog.Security(c, "auth.token.missing", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "missing authorization token"})
		}
		claims, err := auth.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			applog.Security(c, "auth.token.invalid", map[string]any{"source": "header"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "invalid or expired token"})
		}
		setUser(c, claims)
		return c.Next()
	}
}
