package catalog

import (
	"fmt"
	"strings"

	"stocktake-backend/internal/audit"
	"stocktake-backend/internal/database"
	"stocktake-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SupplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Country       string `json:"country"`
	TaxID         string `json:"tax_id"`
}

type SupplierResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Country       string `json:"country"`
	TaxID         string `json:"tax_id"`
}

func toSupplierResponse(s *models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Email:         s.Email,
		Phone:         s.Phone,
		Address:       s.Address,
		City:          s.City,
		Country:       s.Country,
		TaxID:         s.TaxID,
	}
}

// GET /api/suppliers?search=
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Supplier{})
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			dbq = dbq.Where("name ILIKE ?", "%"+search+"%")
		}

		var suppliers []models.Supplier
		if err := dbq.Order("name ASC").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list suppliers")
		}

		resp := make([]SupplierResponse, 0, len(suppliers))
		for i := range suppliers {
			resp = append(resp, toSupplierResponse(&suppliers[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}
		return c.JSON(toSupplierResponse(&supplier))
	}
}

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Supplier name is required")
		}

		var existing int64
		database.DB.Model(&models.Supplier{}).Where("name = ?", body.Name).Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "Supplier with this name already exists")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		supplier := models.Supplier{
			Name:          body.Name,
			ContactPerson: body.ContactPerson,
			Email:         body.Email,
			Phone:         body.Phone,
			Address:       body.Address,
			City:          body.City,
			Country:       body.Country,
			TaxID:         body.TaxID,
		}
		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create supplier")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier",
			EntityID:    supplier.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Supplier created: %s", supplier.Name),
			After:       supplier,
		})

		return c.Status(fiber.StatusCreated).JSON(toSupplierResponse(&supplier))
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}

		before := supplier

		if name := strings.TrimSpace(body.Name); name != "" && name != supplier.Name {
			var existing int64
			database.DB.Model(&models.Supplier{}).Where("name = ? AND id <> ?", name, id).Count(&existing)
			if existing > 0 {
				return fiber.NewError(fiber.StatusConflict, "Supplier with this name already exists")
			}
			supplier.Name = name
		}
		supplier.ContactPerson = body.ContactPerson
		supplier.Email = body.Email
		supplier.Phone = body.Phone
		supplier.Address = body.Address
		supplier.City = body.City
		supplier.Country = body.Country
		supplier.TaxID = body.TaxID

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		if err := database.DB.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update supplier")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier",
			EntityID:    supplier.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Supplier %s updated", supplier.Name),
			Before:      before,
			After:       supplier,
		})

		return c.JSON(toSupplierResponse(&supplier))
	}
}

// DELETE /api/suppliers/:id
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}

		var productRefs int64
		database.DB.Model(&models.Product{}).Where("supplier_id = ?", id).Count(&productRefs)
		if productRefs > 0 {
			return fiber.NewError(fiber.StatusConflict, "Cannot delete supplier with associated products. Reassign products first.")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		// Lots keep rendering through their supplier snapshot.
		if err := database.DB.Model(&models.PurchaseLot{}).
			Where("supplier_id = ?", id).
			Update("supplier_id", nil).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete supplier")
		}
		if err := database.DB.Delete(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete supplier")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "supplier",
			EntityID:    supplier.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Supplier deleted: %s", supplier.Name),
			Before:      supplier,
		})

		return c.JSON(fiber.Map{"message": "Supplier deleted successfully"})
	}
}
