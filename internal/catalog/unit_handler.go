package catalog

import (
	"fmt"
	"strings"

	"stocktake-backend/internal/audit"
	"stocktake-backend/internal/database"
	"stocktake-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type UnitRequest struct {
	Name string `json:"name"`
}

type UnitResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// GET /api/units
func ListUnitsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var units []models.Unit
		if err := database.DB.Order("name ASC").Find(&units).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list units")
		}

		resp := make([]UnitResponse, 0, len(units))
		for _, u := range units {
			resp = append(resp, UnitResponse{ID: u.ID, Name: u.Name})
		}
		return c.JSON(resp)
	}
}

// POST /api/units
func CreateUnitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UnitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Unit name is required")
		}

		var existing int64
		database.DB.Model(&models.Unit{}).Where("name = ?", body.Name).Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "Unit with this name already exists")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		unit := models.Unit{Name: body.Name}
		if err := database.DB.Create(&unit).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create unit")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "unit",
			EntityID:    unit.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Unit created: %s", unit.Name),
			After:       unit,
		})

		return c.Status(fiber.StatusCreated).JSON(UnitResponse{ID: unit.ID, Name: unit.Name})
	}
}

// PUT /api/units/:id
func UpdateUnitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body UnitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var unit models.Unit
		if err := database.DB.First(&unit, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Unit not found")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Unit name cannot be empty")
		}

		var existing int64
		database.DB.Model(&models.Unit{}).Where("name = ? AND id <> ?", body.Name, id).Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "Unit with this name already exists")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		before := unit
		unit.Name = body.Name
		if err := database.DB.Save(&unit).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update unit")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "unit",
			EntityID:    unit.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Unit %s renamed to %s", before.Name, unit.Name),
			Before:      before,
			After:       unit,
		})

		return c.JSON(UnitResponse{ID: unit.ID, Name: unit.Name})
	}
}

// DELETE /api/units/:id
func DeleteUnitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var unit models.Unit
		if err := database.DB.First(&unit, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Unit not found")
		}

		var productRefs int64
		database.DB.Model(&models.Product{}).Where("unit_id = ?", id).Count(&productRefs)
		if productRefs > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Cannot delete unit with %d product(s). Reassign products first.", productRefs))
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		if err := database.DB.Delete(&unit).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete unit")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "unit",
			EntityID:    unit.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Unit deleted: %s", unit.Name),
			Before:      unit,
		})

		return c.JSON(fiber.Map{"message": "Unit deleted successfully"})
	}
}
