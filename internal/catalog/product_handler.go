package catalog

import (
	"fmt"
	"strings"

	"stocktake-backend/internal/audit"
	"stocktake-backend/internal/auth"
	"stocktake-backend/internal/database"
	"stocktake-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UnitID      uint   `json:"unit_id"`
	SupplierID  *uint  `json:"supplier_id"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	UnitID      *uint   `json:"unit_id"`
	SupplierID  *uint   `json:"supplier_id"`
}

type ProductResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UnitID      uint   `json:"unit_id"`
	UnitName    string `json:"unit_name"`
	SupplierID  *uint  `json:"supplier_id"`
	Supplier    string `json:"supplier,omitempty"`
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

func parseID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid ID")
	}
	return id, nil
}

func toProductResponse(p *models.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitID:      p.UnitID,
		UnitName:    p.Unit.Name,
		SupplierID:  p.SupplierID,
	}
	if p.Supplier != nil {
		resp.Supplier = p.Supplier.Name
	}
	return resp
}

// GET /api/products?search=&supplier_id=
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Unit").Preload("Supplier").Model(&models.Product{})

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			dbq = dbq.Where("name ILIKE ?", "%"+search+"%")
		}
		if sidStr := c.Query("supplier_id"); sidStr != "" {
			var sid uint
			if _, err := fmt.Sscan(sidStr, &sid); err == nil && sid > 0 {
				dbq = dbq.Where("supplier_id = ?", sid)
			}
		}

		var products []models.Product
		if err := dbq.Order("name ASC").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}

		resp := make([]ProductResponse, 0, len(products))
		for i := range products {
			resp = append(resp, toProductResponse(&products[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var product models.Product
		if err := database.DB.Preload("Unit").Preload("Supplier").First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return c.JSON(toProductResponse(&product))
	}
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Product name is required")
		}

		var existing int64
		database.DB.Model(&models.Product{}).Where("name = ?", body.Name).Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "Product with this name already exists")
		}

		var unit models.Unit
		if err := database.DB.First(&unit, "id = ?", body.UnitID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Unit not found")
		}

		if body.SupplierID != nil {
			var supplier models.Supplier
			if err := database.DB.First(&supplier, "id = ?", *body.SupplierID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Supplier not found")
			}
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		product := models.Product{
			Name:        body.Name,
			Description: body.Description,
			UnitID:      body.UnitID,
			SupplierID:  body.SupplierID,
		}
		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create product")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "product",
			EntityID:    product.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Product created: %s", product.Name),
			After:       product,
		})

		if err := database.DB.Preload("Unit").Preload("Supplier").First(&product, "id = ?", product.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load product")
		}
		return c.Status(fiber.StatusCreated).JSON(toProductResponse(&product))
	}
}

// PUT /api/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		before := product

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Product name cannot be empty")
			}
			var existing int64
			database.DB.Model(&models.Product{}).Where("name = ? AND id <> ?", name, id).Count(&existing)
			if existing > 0 {
				return fiber.NewError(fiber.StatusConflict, "Product with this name already exists")
			}
			product.Name = name
		}
		if body.Description != nil {
			product.Description = *body.Description
		}
		if body.UnitID != nil {
			var unit models.Unit
			if err := database.DB.First(&unit, "id = ?", *body.UnitID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Unit not found")
			}
			product.UnitID = *body.UnitID
		}
		if body.SupplierID != nil {
			var supplier models.Supplier
			if err := database.DB.First(&supplier, "id = ?", *body.SupplierID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Supplier not found")
			}
			product.SupplierID = body.SupplierID
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "product",
			EntityID:    product.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Product %s updated", product.Name),
			Before:      before,
			After:       product,
		})

		if err := database.DB.Preload("Unit").Preload("Supplier").First(&product, "id = ?", product.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load product")
		}
		return c.JSON(toProductResponse(&product))
	}
}

// DELETE /api/products/:id
// Historical lots survive deletion: their product reference goes NULL and
// the display falls back to the immutable snapshot.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		var countItemRefs int64
		database.DB.Model(&models.YearEndCountItem{}).Where("product_id = ?", id).Count(&countItemRefs)
		if countItemRefs > 0 {
			return fiber.NewError(fiber.StatusConflict, "Cannot delete product referenced in year-end counts")
		}

		var lotRefs int64
		database.DB.Model(&models.PurchaseLot{}).Where("product_id = ?", id).Count(&lotRefs)

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.PurchaseLot{}).
				Where("product_id = ?", id).
				Update("product_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(&product).Error
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete product")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "product",
			EntityID:    product.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Product deleted: %s", product.Name),
			Before:      product,
		})

		return c.JSON(fiber.Map{
			"message":            "Product deleted successfully",
			"purchases_affected": lotRefs,
		})
	}
}
