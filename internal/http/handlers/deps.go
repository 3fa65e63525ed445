package handlers

import (
	"github.com/jmoiron/sqlx"

	"storebill/internal/config"
	"storebill/internal/metrics"
	"storebill/internal/repos"
	"storebill/internal/services"
)

type Deps struct {
	Auth     *services.AuthService
	Invoices *services.InvoiceService
	Reaper   *services.Reaper
	Metrics  *metrics.Metrics

	AuthHandler     *AuthHandler
	InvoiceHandler  *InvoiceHandler
	ProductHandler  *ProductHandler
	CustomerHandler *CustomerHandler
	SettingsHandler *SettingsHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, m *metrics.Metrics) *Deps {
	prodRepo := repos.NewProductRepo(db)
	custRepo := repos.NewCustomerRepo(db)
	invRepo := repos.NewInvoiceRepo(db)
	counterRepo := repos.NewCounterRepo(db)
	settingsRepo := repos.NewSettingsRepo(db)
	userRepo := repos.NewUserRepo(db)

	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	catalogSvc := services.NewCatalogService(prodRepo)
	custSvc := services.NewCustomerService(custRepo)
	settingsSvc := services.NewSettingsService(settingsRepo)
	invoiceSvc := services.NewInvoiceService(db, invRepo, counterRepo, prodRepo, custRepo, m)

	return &Deps{
		Auth:     authSvc,
		Invoices: invoiceSvc,
		Reaper:   services.NewReaper(invRepo, cfg.PendingTTL, m),
		Metrics:  m,

		AuthHandler: &AuthHandler{Auth: authSvc},
		InvoiceHandler: &InvoiceHandler{
			Invoices:  invoiceSvc,
			Catalog:   catalogSvc,
			Customers: custSvc,
			Settings:  settingsSvc,
		},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		CustomerHandler: &CustomerHandler{Customers: custSvc},
		SettingsHandler: &SettingsHandler{Settings: settingsSvc},
	}
}
