package main

import (
	"log"
	"strings"

	"stocktake-backend/internal/audit"
	"stocktake-backend/internal/auth"
	"stocktake-backend/internal/catalog"
	"stocktake-backend/internal/config"
	"stocktake-backend/internal/dashboard"
	"stocktake-backend/internal/database"
	"stocktake-backend/internal/inventory"
	"stocktake-backend/internal/models"
	"stocktake-backend/internal/purchases"
	"stocktake-backend/internal/yearend"
	"stocktake-backend/internal/yearlock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	logger := config.GetLogger()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logger.WithField("path", c.Path()).Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	app.Use(requestid.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin-only routes: catalog mutations plus the irreversible
	// count/lock transitions.
	adminOnly := auth.RequireRole(models.RoleAdmin)

	// Catalog
	protected.Get("/products", catalog.ListProductsHandler())
	protected.Get("/products/:id", catalog.GetProductHandler())
	protected.Post("/products", adminOnly, catalog.CreateProductHandler())
	protected.Put("/products/:id", adminOnly, catalog.UpdateProductHandler())
	protected.Delete("/products/:id", adminOnly, catalog.DeleteProductHandler())

	protected.Get("/suppliers", catalog.ListSuppliersHandler())
	protected.Get("/suppliers/:id", catalog.GetSupplierHandler())
	protected.Post("/suppliers", adminOnly, catalog.CreateSupplierHandler())
	protected.Put("/suppliers/:id", adminOnly, catalog.UpdateSupplierHandler())
	protected.Delete("/suppliers/:id", adminOnly, catalog.DeleteSupplierHandler())

	protected.Get("/units", catalog.ListUnitsHandler())
	protected.Post("/units", adminOnly, catalog.CreateUnitHandler())
	protected.Put("/units/:id", adminOnly, catalog.UpdateUnitHandler())
	protected.Delete("/units/:id", adminOnly, catalog.DeleteUnitHandler())

	// Purchase lot ledger
	protected.Get("/purchase-lots", purchases.ListLotsHandler())
	protected.Get("/purchase-lots/:id", purchases.GetLotHandler())
	protected.Post("/purchase-lots", purchases.CreateLotHandler())
	protected.Put("/purchase-lots/:id", purchases.UpdateLotHandler())
	protected.Delete("/purchase-lots/:id", purchases.DeleteLotHandler())

	// Inventory valuation
	protected.Get("/inventory/value", inventory.InventoryValueHandler())
	protected.Get("/inventory/value/:productId", inventory.ProductValueHandler())

	// Year-end counts
	protected.Post("/year-end-counts", yearend.InitiateCountHandler())
	protected.Get("/year-end-counts", yearend.ListCountsHandler())
	protected.Get("/year-end-counts/:year/revisions", yearend.ListRevisionsHandler())
	protected.Get("/year-end-counts/:year/compare", yearend.CompareRevisionsHandler())
	protected.Get("/year-end-counts/:year", yearend.GetCountByYearHandler())
	protected.Get("/year-end-count-sheets/:id", yearend.CountSheetHandler())
	protected.Put("/year-end-counts/:id/items", yearend.UpdateItemHandler())
	protected.Get("/year-end-counts/:id/variances", yearend.VariancesHandler())
	protected.Get("/year-end-counts/:id/report", yearend.ReportHandler())
	protected.Post("/year-end-counts/:id/confirm", adminOnly, yearend.ConfirmCountHandler())

	// Locked years
	protected.Get("/locked-years", yearlock.ListLockedYearsHandler())
	protected.Post("/locked-years/:year/unlock", adminOnly, yearlock.UnlockYearHandler())
	protected.Get("/locked-years/:year/unlock-history", yearlock.UnlockHistoryHandler())

	// Dashboard
	protected.Get("/dashboard/pending-count", dashboard.PendingCountHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
