package dashboard

import (
	"stocktake-backend/internal/database"
	"stocktake-backend/internal/yearend"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard/pending-count
func PendingCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := yearend.PendingCountCheck(database.DB)
		if err != nil {
			return err
		}
		return c.JSON(result)
	}
}
