package yearlock

import (
	"fmt"

	"stocktake-backend/internal/auth"
	"stocktake-backend/internal/database"
	"stocktake-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LockedYearResponse struct {
	Year     int    `json:"year"`
	LockedAt string `json:"locked_at"`
}

type UnlockRequest struct {
	ReasonCategory string `json:"reason_category"`
	Description    string `json:"description"`
}

type UnlockAuditResponse struct {
	ID             uint   `json:"id"`
	Year           int    `json:"year"`
	ReasonCategory string `json:"reason_category"`
	Description    string `json:"description"`
	UnlockedAt     string `json:"unlocked_at"`
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

func parseYearParam(c *fiber.Ctx) (int, error) {
	var year int
	if _, err := fmt.Sscan(c.Params("year"), &year); err != nil || year < 1900 || year > 9999 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid year")
	}
	return year, nil
}

// GET /api/locked-years
func ListLockedYearsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		years, err := LockedYears(database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list locked years")
		}

		resp := make([]LockedYearResponse, 0, len(years))
		for _, y := range years {
			resp = append(resp, LockedYearResponse{
				Year:     y.Year,
				LockedAt: y.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(resp)
	}
}

// POST /api/locked-years/:year/unlock
func UnlockYearHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := parseYearParam(c)
		if err != nil {
			return err
		}

		var body UnlockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		if err := Unlock(database.DB, year, models.UnlockReason(body.ReasonCategory), body.Description, userID, userName); err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("Year %d unlocked", year),
		})
	}
}

// GET /api/locked-years/:year/unlock-history
func UnlockHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := parseYearParam(c)
		if err != nil {
			return err
		}

		history, err := UnlockHistory(database.DB, year)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load unlock history")
		}

		resp := make([]UnlockAuditResponse, 0, len(history))
		for _, h := range history {
			resp = append(resp, UnlockAuditResponse{
				ID:             h.ID,
				Year:           h.Year,
				ReasonCategory: string(h.ReasonCategory),
				Description:    h.Description,
				UnlockedAt:     h.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(resp)
	}
}
