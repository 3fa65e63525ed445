package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"storebill/internal/domain"
	"storebill/internal/log"
	"storebill/internal/services"
	"storebill/internal/validate"
)

// tokenCookie carries the login JWT for the web app.
const tokenCookie = "token"

type AuthHandler struct {
	Auth *services.AuthService
}

// ---------- JSON API ----------

// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if errors.Is(err, domain.ErrDuplicateUsername) {
		log.Security(c, "auth.register.duplicate", map[string]any{"username": in.Username})
		return badRequest(c, "Username already taken")
	}
	if err != nil {
		return failJSON(c, "auth.register", err, "Failed to register")
	}
	log.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "userId": u.ID})
}

// POST /api/auth/login
func (h *AuthHandler) APILogin(c *fiber.Ctx) error {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	u, tok, err := h.Auth.Login(c.UserContext(), in.Username, in.Password)
	if errors.Is(err, domain.ErrBadCredentials) {
		log.Security(c, "auth.login.fail", map[string]any{"username": in.Username})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid username or password"})
	}
	if err != nil {
		return failJSON(c, "auth.login", err, "Failed to sign in")
	}
	log.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID})
	return c.JSON(fiber.Map{"success": true, "token": tok, "user": u})
}

// ---------- Web ----------

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": "", "Registered": c.Query("registered") == "1"})
}

// GET /register
func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", nil)
}

// POST /register
func (h *AuthHandler) RegisterSubmit(c *fiber.Ctx) error {
	in := services.RegisterInput{
		Username: c.FormValue("username"),
		Name:     c.FormValue("name"),
		Password: c.FormValue("password"),
	}
	again := fiber.Map{"Username": in.Username, "Name": in.Name}
	if in.Password != c.FormValue("confirm") {
		again["Err"] = "Passwords do not match"
		return render(c.Status(fiber.StatusBadRequest), "register", again)
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicateUsername):
		log.Security(c, "auth.register.duplicate", map[string]any{"username": in.Username})
		again["Err"] = "Username already taken"
		return render(c.Status(fiber.StatusBadRequest), "register", again)
	case errors.Is(err, domain.ErrValidation):
		again["Err"] = clientMessage(err)
		return render(c.Status(fiber.StatusBadRequest), "register", again)
	default:
		return err
	}
	log.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return c.Redirect("/login?registered=1")
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	pass := c.FormValue("password")
	if _, ok := validate.Username(username); !ok || !validate.Password(pass) {
		log.Security(c, "auth.login.fail", map[string]any{"username": username, "reason": "bad_format"})
		return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{"Err": "Invalid username or password"})
	}

	u, tok, err := h.Auth.Login(c.UserContext(), username, pass)
	if err != nil {
		if !errors.Is(err, domain.ErrBadCredentials) {
			return err
		}
		log.Security(c, "auth.login.fail", map[string]any{"username": username})
		return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{"Err": "Invalid username or password"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    tok,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(h.Auth.TTL),
	})
	log.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID})
	return c.Redirect("/billing")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/login")
}
