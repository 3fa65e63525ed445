package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	applog "storebill/internal/log"
)

const csrfCookie = "csrf_"

type AppOptions struct {
	TemplatesDir   string
	APIRequireAuth bool
	// RateLimit is requests per minute per IP; 0 disables the global limiter.
	RateLimit int
	// LoginLimit caps POST /login attempts per IP per 10 minutes.
	LoginLimit int
	AccessLog  bool
}

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code, msg = fe.Code, fe.Message
	}
	applog.Error(c, "server.error", err, map[string]any{"status": code})

	if isAPI(c) {
		return c.Status(code).JSON(fiber.Map{"success": false, "error": msg})
	}
	// Avoid leaking internals; best-effort render
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// NewApp wires middleware and every route of the JSON API and the web app.
func NewApp(d *Deps, opts AppOptions) *fiber.App {
	engine := html.New(opts.TemplatesDir, ".html")
	engine.AddFunc("money", formatMoney)
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("deref", func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	})

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: errorHandler,
		BodyLimit:    1 << 20, // 1 MiB
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
	}
	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return p == "/healthz" || p == "/metrics"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				if isAPI(c) {
					return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "error": "rate limit exceeded, retry soon"})
				}
				return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests")
			},
		}))
	}

	// ---------- Ops ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}

	// ---------- JSON API ----------
	api := app.Group("/api")
	api.Post("/auth/register", d.AuthHandler.Register)
	api.Post("/auth/login", d.AuthHandler.APILogin)

	var guard []fiber.Handler
	if opts.APIRequireAuth {
		guard = append(guard, RequireToken(d.Auth))
	}
	protected := api.Group("", guard...)

	protected.Get("/products", d.ProductHandler.List)
	protected.Get("/products/:id", d.ProductHandler.Get)
	protected.Post("/products", d.ProductHandler.Create)
	protected.Put("/products/:id", d.ProductHandler.Update)
	protected.Delete("/products/:id", d.ProductHandler.Delete)

	protected.Get("/customers", d.CustomerHandler.List)
	protected.Get("/customers/:id", d.CustomerHandler.Get)
	protected.Post("/customers", d.CustomerHandler.Create)
	protected.Put("/customers/:id", d.CustomerHandler.Update)
	protected.Delete("/customers/:id", d.CustomerHandler.Delete)

	protected.Get("/invoices", d.InvoiceHandler.List)
	protected.Get("/invoices/:id", d.InvoiceHandler.Get)
	protected.Post("/invoices", d.InvoiceHandler.Create)

	protected.Get("/settings", d.SettingsHandler.Get)
	protected.Put("/settings", d.SettingsHandler.Update)

	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Not found"})
	})

	// ---------- Web app ----------
	web := app.Group("", csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     csrfCookie,
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}), func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	}, AttachUser(d.Auth))

	loginMax := opts.LoginLimit
	if loginMax <= 0 {
		loginMax = 5
	}
	web.Get("/login", d.AuthHandler.LoginForm)
	web.Post("/login", limiter.New(limiter.Config{
		Max:        loginMax,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return render(c.Status(fiber.StatusTooManyRequests), "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	web.Post("/logout", d.AuthHandler.Logout)
	web.Get("/register", d.AuthHandler.RegisterForm)
	web.Post("/register", d.AuthHandler.RegisterSubmit)

	pages := web.Group("", RequireUser(d.Auth))
	pages.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/billing") })
	pages.Get("/billing", d.InvoiceHandler.BillingPage)
	pages.Post("/billing", d.InvoiceHandler.Checkout)
	pages.Get("/invoices", d.InvoiceHandler.ListPage)
	pages.Get("/invoices/:id", d.InvoiceHandler.Receipt)
	pages.Get("/products", d.ProductHandler.Page)
	pages.Post("/products", d.ProductHandler.CreateForm)
	pages.Get("/products/:id", d.ProductHandler.EditPage)
	pages.Post("/products/:id", d.ProductHandler.UpdateForm)
	pages.Post("/products/:id/deactivate", d.ProductHandler.DeactivateForm)
	pages.Get("/customers", d.CustomerHandler.Page)
	pages.Post("/customers", d.CustomerHandler.CreateForm)
	pages.Get("/customers/:id", d.CustomerHandler.EditPage)
	pages.Post("/customers/:id", d.CustomerHandler.UpdateForm)
	pages.Get("/settings", d.SettingsHandler.Page)
	pages.Post("/settings", d.SettingsHandler.UpdateForm)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}
