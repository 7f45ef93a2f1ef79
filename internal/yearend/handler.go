package yearend

import (
	"fmt"

	"stocktake-backend/internal/audit"
	"stocktake-backend/internal/auth"
	"stocktake-backend/internal/database"
	"stocktake-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type InitiateCountRequest struct {
	Year int `json:"year"`
}

type UpdateItemRequest struct {
	ProductID       uint `json:"product_id"`
	CountedQuantity *int `json:"counted_quantity"`
}

type CountResponse struct {
	ID          uint   `json:"id"`
	Year        int    `json:"year"`
	Revision    int    `json:"revision"`
	Status      string `json:"status"`
	ConfirmedAt string `json:"confirmed_at,omitempty"`
	ItemsCount  *int   `json:"items_count,omitempty"`
}

type CountItemResponse struct {
	ID               uint             `json:"id"`
	ProductID        uint             `json:"product_id"`
	ProductName      string           `json:"product_name"`
	ExpectedQuantity int              `json:"expected_quantity"`
	CountedQuantity  *int             `json:"counted_quantity"`
	Variance         *int             `json:"variance"`
	Value            *decimal.Decimal `json:"value"`
}

type CountSheetResponse struct {
	CountResponse
	Progress Progress            `json:"progress"`
	Items    []CountItemResponse `json:"items"`
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

func toCountResponse(count *models.YearEndCount) CountResponse {
	resp := CountResponse{
		ID:       count.ID,
		Year:     count.Year,
		Revision: count.Revision,
		Status:   string(count.Status),
	}
	if count.ConfirmedAt != nil {
		resp.ConfirmedAt = count.ConfirmedAt.Format("2006-01-02 15:04:05")
	}
	return resp
}

func toItemResponse(item *models.YearEndCountItem) CountItemResponse {
	return CountItemResponse{
		ID:               item.ID,
		ProductID:        item.ProductID,
		ProductName:      item.Product.Name,
		ExpectedQuantity: item.ExpectedQuantity,
		CountedQuantity:  item.CountedQuantity,
		Variance:         item.Variance,
		Value:            item.Value,
	}
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params(name), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid count ID")
	}
	return id, nil
}

func parseYearParam(c *fiber.Ctx) (int, error) {
	var year int
	if _, err := fmt.Sscan(c.Params("year"), &year); err != nil || year < 1900 || year > 9999 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid year")
	}
	return year, nil
}

// POST /api/year-end-counts
func InitiateCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body InitiateCountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Year < 1900 || body.Year > 9999 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid year")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		count, itemsCount, err := Initiate(database.DB, body.Year)
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "year_end_count",
			EntityID:    count.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Year-end count initiated for %d (revision %d)", count.Year, count.Revision),
			After:       count,
		})

		resp := toCountResponse(count)
		resp.ItemsCount = &itemsCount
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// GET /api/year-end-counts
func ListCountsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts, err := ListCounts(database.DB)
		if err != nil {
			return err
		}

		resp := make([]CountResponse, 0, len(counts))
		for i := range counts {
			resp = append(resp, toCountResponse(&counts[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/year-end-counts/:year?revision=
func GetCountByYearHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := parseYearParam(c)
		if err != nil {
			return err
		}

		var revision *int
		if revStr := c.Query("revision"); revStr != "" {
			var rev int
			if _, err := fmt.Sscan(revStr, &rev); err != nil || rev < 1 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid revision")
			}
			revision = &rev
		}

		count, err := GetByYear(database.DB, year, revision)
		if err != nil {
			return err
		}

		resp := struct {
			CountResponse
			Items []CountItemResponse `json:"items"`
		}{CountResponse: toCountResponse(count)}
		for i := range count.Items {
			resp.Items = append(resp.Items, toItemResponse(&count.Items[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/year-end-counts/:year/revisions
func ListRevisionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := parseYearParam(c)
		if err != nil {
			return err
		}

		counts, err := AllRevisions(database.DB, year)
		if err != nil {
			return err
		}

		resp := make([]CountResponse, 0, len(counts))
		for i := range counts {
			resp = append(resp, toCountResponse(&counts[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/year-end-counts/:year/compare?revision1=&revision2=
func CompareRevisionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := parseYearParam(c)
		if err != nil {
			return err
		}

		var rev1, rev2 int
		if _, err := fmt.Sscan(c.Query("revision1"), &rev1); err != nil || rev1 < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid revision1")
		}
		if _, err := fmt.Sscan(c.Query("revision2"), &rev2); err != nil || rev2 < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid revision2")
		}

		comparison, err := CompareRevisions(database.DB, year, rev1, rev2)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"year":       comparison.Year,
			"revision1":  toCountResponse(&comparison.Revision1),
			"revision2":  toCountResponse(&comparison.Revision2),
			"comparison": comparison.Comparison,
		})
	}
}

// GET /api/year-end-count-sheets/:id
func CountSheetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		countID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		count, progress, err := CountSheet(database.DB, countID)
		if err != nil {
			return err
		}

		resp := CountSheetResponse{
			CountResponse: toCountResponse(count),
			Progress:      progress,
			Items:         make([]CountItemResponse, 0, len(count.Items)),
		}
		for i := range count.Items {
			resp.Items = append(resp.Items, toItemResponse(&count.Items[i]))
		}
		return c.JSON(resp)
	}
}

// PUT /api/year-end-counts/:id/items
func UpdateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		countID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
		}
		if body.CountedQuantity == nil {
			return fiber.NewError(fiber.StatusBadRequest, "counted_quantity is required")
		}

		item, err := UpdateItem(database.DB, countID, body.ProductID, *body.CountedQuantity)
		if err != nil {
			return err
		}

		return c.JSON(toItemResponse(item))
	}
}

// GET /api/year-end-counts/:id/variances
func VariancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		countID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		summary, err := Variances(database.DB, countID)
		if err != nil {
			return err
		}
		return c.JSON(summary)
	}
}

// GET /api/year-end-counts/:id/report
func ReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		countID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		report, err := GenerateReport(database.DB, countID)
		if err != nil {
			return err
		}
		return c.JSON(report)
	}
}

// POST /api/year-end-counts/:id/confirm
func ConfirmCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		countID, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		count, err := Confirm(database.DB, countID, userID, userName)
		if err != nil {
			return err
		}

		resp := toCountResponse(count)
		return c.JSON(fiber.Map{
			"count":   resp,
			"message": fmt.Sprintf("Year %d confirmed and locked. All lot quantities updated using FIFO.", count.Year),
		})
	}
}
