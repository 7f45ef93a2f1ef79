package purchases

import (
	"fmt"
	"time"

	"stocktake-backend/internal/audit"
	"stocktake-backend/internal/auth"
	"stocktake-backend/internal/database"
	"stocktake-backend/internal/models"
	"stocktake-backend/internal/yearlock"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateLotRequest struct {
	ProductID    uint   `json:"product_id"`
	SupplierID   uint   `json:"supplier_id"`
	PurchaseDate string `json:"purchase_date"` // "2023-01-15"
	Quantity     int    `json:"quantity"`
	UnitCost     string `json:"unit_cost"` // decimal string, e.g. "1.50"
}

type UpdateLotRequest struct {
	PurchaseDate *string `json:"purchase_date"`
	Quantity     *int    `json:"quantity"`
	UnitCost     *string `json:"unit_cost"`
}

type lotRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type LotResponse struct {
	ID                uint                         `json:"id"`
	Product           *lotRef                      `json:"product"`
	Supplier          *lotRef                      `json:"supplier"`
	PurchaseDate      string                       `json:"purchase_date"`
	Year              int                          `json:"year"`
	Quantity          int                          `json:"quantity"`
	RemainingQuantity int                          `json:"remaining_quantity"`
	UnitCost          decimal.Decimal              `json:"unit_cost"`
	LotValue          *decimal.Decimal             `json:"lot_value,omitempty"`
	ProductSnapshot   *models.ProductSnapshotData  `json:"product_snapshot"`
	SupplierSnapshot  *models.SupplierSnapshotData `json:"supplier_snapshot"`
}

func getUserInfo(c *fiber.Ctx) (uint, string, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusForbidden, "Could not read user from token")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "User not found")
	}

	return userID, user.Name, nil
}

func toLotResponse(lot *models.PurchaseLot, withValue bool) LotResponse {
	resp := LotResponse{
		ID:                lot.ID,
		PurchaseDate:      lot.PurchaseDate.Format("2006-01-02"),
		Year:              lot.Year,
		Quantity:          lot.Quantity,
		RemainingQuantity: lot.RemainingQuantity,
		UnitCost:          lot.UnitCost,
	}

	if lot.Product != nil {
		resp.Product = &lotRef{ID: lot.Product.ID, Name: lot.Product.Name}
	}
	if lot.Supplier != nil {
		resp.Supplier = &lotRef{ID: lot.Supplier.ID, Name: lot.Supplier.Name}
	}

	// Snapshots are the source of truth for display: they survive product
	// and supplier edits or deletions.
	if snap, err := lot.ParsedProductSnapshot(); err == nil {
		resp.ProductSnapshot = snap
		if resp.Product == nil {
			resp.Product = &lotRef{ID: snap.ID, Name: snap.Name}
		}
	}
	if snap, err := lot.ParsedSupplierSnapshot(); err == nil {
		resp.SupplierSnapshot = snap
		if resp.Supplier == nil {
			resp.Supplier = &lotRef{ID: snap.ID, Name: snap.Name}
		}
	}

	if withValue {
		v := lot.LotValue()
		resp.LotValue = &v
	}

	return resp
}

// GET /api/purchase-lots?product_id=&supplier_id=&year=&remaining_only=true
func ListLotsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Product").Preload("Supplier").Model(&models.PurchaseLot{})

		if pidStr := c.Query("product_id"); pidStr != "" {
			var pid uint
			if _, err := fmt.Sscan(pidStr, &pid); err == nil && pid > 0 {
				dbq = dbq.Where("product_id = ?", pid)
			}
		}
		if sidStr := c.Query("supplier_id"); sidStr != "" {
			var sid uint
			if _, err := fmt.Sscan(sidStr, &sid); err == nil && sid > 0 {
				dbq = dbq.Where("supplier_id = ?", sid)
			}
		}
		if yearStr := c.Query("year"); yearStr != "" {
			var year int
			if _, err := fmt.Sscan(yearStr, &year); err == nil && year > 0 {
				dbq = dbq.Where("year = ?", year)
			}
		}
		if c.Query("remaining_only") == "true" {
			dbq = dbq.Where("remaining_quantity > 0")
		}

		var lots []models.PurchaseLot
		if err := dbq.Order("purchase_date ASC, id ASC").Find(&lots).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list purchase lots")
		}

		resp := make([]LotResponse, 0, len(lots))
		for i := range lots {
			resp = append(resp, toLotResponse(&lots[i], false))
		}
		return c.JSON(resp)
	}
}

// GET /api/purchase-lots/:id
func GetLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid lot ID")
		}

		var lot models.PurchaseLot
		if err := database.DB.Preload("Product").Preload("Supplier").First(&lot, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Purchase lot not found")
		}

		return c.JSON(toLotResponse(&lot, true))
	}
}

// POST /api/purchase-lots
func CreateLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateLotRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quantity must be greater than 0")
		}

		unitCost, err := decimal.NewFromString(body.UnitCost)
		if err != nil || unitCost.LessThanOrEqual(decimal.Zero) {
			return fiber.NewError(fiber.StatusBadRequest, "Unit cost must be greater than 0")
		}

		purchaseDate, err := time.Parse("2006-01-02", body.PurchaseDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid purchase date, expected format: 2006-01-02")
		}
		year := purchaseDate.Year()

		locked, err := yearlock.IsLocked(database.DB, year)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check year lock")
		}
		if err := yearlock.CheckMutable(yearlock.LotOpCreate, year, locked); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		var product models.Product
		if err := database.DB.Preload("Unit").First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Product not found")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Supplier not found")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		lot := models.PurchaseLot{
			ProductID:         &product.ID,
			SupplierID:        &supplier.ID,
			PurchaseDate:      purchaseDate,
			Year:              year,
			Quantity:          body.Quantity,
			RemainingQuantity: body.Quantity,
			UnitCost:          unitCost,
			ProductSnapshot:   models.SnapshotProduct(&product),
			SupplierSnapshot:  models.SnapshotSupplier(&supplier),
		}

		if err := database.DB.Create(&lot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create purchase lot")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "purchase_lot",
			EntityID:    lot.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Purchase lot created: %s, %d units", product.Name, lot.Quantity),
			After:       lot,
		})

		lot.Product = &product
		lot.Supplier = &supplier
		return c.Status(fiber.StatusCreated).JSON(toLotResponse(&lot, false))
	}
}

// PUT /api/purchase-lots/:id
func UpdateLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid lot ID")
		}

		var body UpdateLotRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var lot models.PurchaseLot
		if err := database.DB.First(&lot, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Purchase lot not found")
		}

		locked, err := yearlock.IsLocked(database.DB, lot.Year)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check year lock")
		}
		if err := yearlock.CheckMutable(yearlock.LotOpUpdate, lot.Year, locked); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		before := lot

		if body.Quantity != nil {
			if *body.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Quantity must be greater than 0")
			}
			// Preserve what was already consumed: the new remaining is the
			// new quantity minus consumption so far, floored at zero.
			consumed := lot.Quantity - lot.RemainingQuantity
			newRemaining := *body.Quantity - consumed
			if newRemaining < 0 {
				newRemaining = 0
			}
			lot.Quantity = *body.Quantity
			lot.RemainingQuantity = newRemaining
		}

		if body.UnitCost != nil {
			unitCost, err := decimal.NewFromString(*body.UnitCost)
			if err != nil || unitCost.LessThanOrEqual(decimal.Zero) {
				return fiber.NewError(fiber.StatusBadRequest, "Unit cost must be greater than 0")
			}
			lot.UnitCost = unitCost
		}

		if body.PurchaseDate != nil {
			purchaseDate, err := time.Parse("2006-01-02", *body.PurchaseDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid purchase date, expected format: 2006-01-02")
			}
			newYear := purchaseDate.Year()
			if newYear != lot.Year {
				destLocked, err := yearlock.IsLocked(database.DB, newYear)
				if err != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "Could not check year lock")
				}
				if err := yearlock.CheckMutable(yearlock.LotOpMove, newYear, destLocked); err != nil {
					return fiber.NewError(fiber.StatusConflict, err.Error())
				}
			}
			lot.PurchaseDate = purchaseDate
			lot.Year = newYear
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		if err := database.DB.Save(&lot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update purchase lot")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "purchase_lot",
			EntityID:    lot.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Purchase lot %d updated", lot.ID),
			Before:      before,
			After:       lot,
		})

		if err := database.DB.Preload("Product").Preload("Supplier").First(&lot, "id = ?", lot.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load purchase lot")
		}
		return c.JSON(toLotResponse(&lot, false))
	}
}

// DELETE /api/purchase-lots/:id
func DeleteLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid lot ID")
		}

		var lot models.PurchaseLot
		if err := database.DB.First(&lot, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Purchase lot not found")
		}

		locked, err := yearlock.IsLocked(database.DB, lot.Year)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check year lock")
		}
		if err := yearlock.CheckMutable(yearlock.LotOpDelete, lot.Year, locked); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		if lot.RemainingQuantity != lot.Quantity {
			return fiber.NewError(fiber.StatusConflict, "Cannot delete partially consumed purchase lot. Remaining quantity must equal original quantity.")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		if err := database.DB.Delete(&lot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete purchase lot")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "purchase_lot",
			EntityID:    lot.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Purchase lot %d deleted", lot.ID),
			Before:      lot,
		})

		return c.JSON(fiber.Map{"message": "Purchase lot deleted successfully"})
	}
}
