package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storebill/internal/domain"
	applog "storebill/internal/log"
	"storebill/internal/validate"
)

// isClientError reports failures caused by the request rather than the server.
func isClientError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrTotalsMismatch) ||
		errors.Is(err, domain.ErrNotFound)
}

// clientMessage strips wrapping context down to what the caller can act on.
func clientMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 && strings.HasPrefix(msg, "create invoice") {
		msg = msg[i+2:]
	}
	return msg
}

// failJSON answers with {success:false, error}: 400 for client errors, 500 with
// the generic message otherwise. Server-side details only go to the log.
func failJSON(c *fiber.Ctx, action string, err error, generic string) error {
	if isClientError(err) {
		applog.Info(c, action+".rejected", map[string]any{"reason": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": clientMessage(err)})
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": generic})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": msg})
}

func notFoundJSON(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": what + " not found"})
}

// listParams reads page, limit and search from the query string.
func listParams(c *fiber.Ctx) (page, limit int, search string, ok bool) {
	page = validate.Int(c.Query("page"), 1, 0)
	limit = validate.Int(c.Query("limit"), 0, 0)
	search, ok = validate.Q(c.Query("search"))
	return page, limit, search, ok
}
