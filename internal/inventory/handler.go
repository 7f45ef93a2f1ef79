package inventory

import (
	"fmt"

	"stocktake-backend/internal/database"

	"github.com/gofiber/fiber/v2"
)

// GET /api/inventory/value?supplier_id=
func InventoryValueHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var supplierID *uint
		if sidStr := c.Query("supplier_id"); sidStr != "" {
			var sid uint
			if _, err := fmt.Sscan(sidStr, &sid); err != nil || sid == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid supplier_id")
			}
			supplierID = &sid
		}

		result, err := Aggregate(database.DB, supplierID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not calculate inventory value")
		}
		return c.JSON(result)
	}
}

// GET /api/inventory/value/:productId
func ProductValueHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var productID uint
		if _, err := fmt.Sscan(c.Params("productId"), &productID); err != nil || productID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid product ID")
		}

		result, err := CurrentValue(database.DB, productID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not calculate product value")
		}
		return c.JSON(result)
	}
}
