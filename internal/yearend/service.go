package yearend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"stocktake-backend/internal/audit"
	"stocktake-backend/internal/config"
	"stocktake-backend/internal/fifo"
	"stocktake-backend/internal/inventory"
	"stocktake-backend/internal/models"
	"stocktake-backend/internal/yearlock"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Initiate opens a new draft count for a year. Each initiation gets the
// next revision number; expected quantities are frozen from the current
// remaining stock of every product that has any.
func Initiate(db *gorm.DB, year int) (*models.YearEndCount, int, error) {
	locked, err := yearlock.IsLocked(db, year)
	if err != nil {
		return nil, 0, fiber.NewError(fiber.StatusInternalServerError, "Could not check year lock")
	}
	if locked {
		return nil, 0, fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Year %d is locked. Cannot create new count.", year))
	}

	var maxRevision int
	if err := db.Model(&models.YearEndCount{}).
		Where("year = ?", year).
		Select("COALESCE(MAX(revision), 0)").
		Scan(&maxRevision).Error; err != nil {
		return nil, 0, fiber.NewError(fiber.StatusInternalServerError, "Could not determine revision")
	}

	count := models.YearEndCount{
		Year:     year,
		Revision: NextRevision(maxRevision),
		Status:   models.CountStatusDraft,
	}

	itemsCreated := 0
	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&count).Error; err != nil {
			return err
		}

		// Expected quantity per product = remaining stock right now.
		type productStock struct {
			ProductID uint
			Remaining int
		}
		var stocks []productStock
		if err := tx.Model(&models.PurchaseLot{}).
			Select("product_id, SUM(remaining_quantity) AS remaining").
			Where("product_id IS NOT NULL AND remaining_quantity > 0").
			Group("product_id").
			Scan(&stocks).Error; err != nil {
			return err
		}

		for _, s := range stocks {
			item := models.YearEndCountItem{
				YearEndCountID:   count.ID,
				ProductID:        s.ProductID,
				ExpectedQuantity: s.Remaining,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			itemsCreated++
		}
		return nil
	})
	if txErr != nil {
		config.LogError("yearend", "Initiate", fiber.Map{"year": year}, txErr)
		return nil, 0, fiber.NewError(fiber.StatusInternalServerError, "Could not create year-end count")
	}

	return &count, itemsCreated, nil
}

// GetByYear loads a year's count, the latest revision unless one is asked
// for explicitly.
func GetByYear(db *gorm.DB, year int, revision *int) (*models.YearEndCount, error) {
	q := db.Preload("Items").Preload("Items.Product").Preload("Items.Product.Supplier").
		Where("year = ?", year)
	if revision != nil {
		q = q.Where("revision = ?", *revision)
	} else {
		q = q.Order("revision DESC")
	}

	var count models.YearEndCount
	if err := q.First(&count).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if revision != nil {
				return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Year-end count for %d revision %d not found", year, *revision))
			}
			return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Year-end count for %d not found", year))
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load year-end count")
	}

	SortItemsByProductName(count.Items)
	return &count, nil
}

func AllRevisions(db *gorm.DB, year int) ([]models.YearEndCount, error) {
	var counts []models.YearEndCount
	if err := db.Where("year = ?", year).Order("revision ASC").Find(&counts).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not list revisions")
	}
	return counts, nil
}

func ListCounts(db *gorm.DB) ([]models.YearEndCount, error) {
	var counts []models.YearEndCount
	if err := db.Order("year DESC, revision DESC").Find(&counts).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not list year-end counts")
	}
	return counts, nil
}

func getCount(db *gorm.DB, countID uint, withItems bool) (*models.YearEndCount, error) {
	q := db.Session(&gorm.Session{})
	if withItems {
		q = q.Preload("Items").Preload("Items.Product").Preload("Items.Product.Supplier")
	}

	var count models.YearEndCount
	if err := q.First(&count, "id = ?", countID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Year-end count not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load year-end count")
	}
	return &count, nil
}

// CountSheet is the physical counting view: items alphabetical by product
// name plus a progress block.
func CountSheet(db *gorm.DB, countID uint) (*models.YearEndCount, Progress, error) {
	count, err := getCount(db, countID, true)
	if err != nil {
		return nil, Progress{}, err
	}

	SortItemsByProductName(count.Items)
	return count, CountProgress(count.Items), nil
}

// UpdateItem records the physical count for one product and immediately
// recomputes variance and FIFO value, so partially filled sheets always
// show live numbers.
func UpdateItem(db *gorm.DB, countID uint, productID uint, countedQuantity int) (*models.YearEndCountItem, error) {
	if countedQuantity < 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Counted quantity cannot be negative")
	}

	count, err := getCount(db, countID, false)
	if err != nil {
		return nil, err
	}
	if count.Status != models.CountStatusDraft {
		return nil, fiber.NewError(fiber.StatusConflict, "Cannot update confirmed year-end count")
	}

	var item models.YearEndCountItem
	if err := db.Where("year_end_count_id = ? AND product_id = ?", countID, productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Count item not found for this product")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load count item")
	}

	variance := countedQuantity - item.ExpectedQuantity

	var lots []models.PurchaseLot
	if err := db.Where("product_id = ? AND remaining_quantity > 0", productID).Find(&lots).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load purchase lots")
	}
	fifoLots := make([]fifo.Lot, 0, len(lots))
	for _, l := range lots {
		fifoLots = append(fifoLots, fifo.Lot{
			ID:                l.ID,
			PurchaseDate:      l.PurchaseDate,
			Quantity:          l.Quantity,
			RemainingQuantity: l.RemainingQuantity,
			UnitCost:          l.UnitCost,
		})
	}
	value, _ := fifo.ValueForQuantity(fifoLots, countedQuantity)

	item.CountedQuantity = &countedQuantity
	item.Variance = &variance
	item.Value = &value

	if err := db.Save(&item).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not update count item")
	}

	if err := db.Preload("Product").First(&item, "id = ?", item.ID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load count item")
	}
	return &item, nil
}

type VarianceItem struct {
	ProductID        uint             `json:"productId"`
	ProductName      string           `json:"productName"`
	ExpectedQuantity int              `json:"expectedQuantity"`
	CountedQuantity  *int             `json:"countedQuantity"`
	Variance         *int             `json:"variance"`
	Value            *decimal.Decimal `json:"value"`
	Status           ItemStatus       `json:"status"`
}

type VarianceSummary struct {
	TotalProducts   int             `json:"totalProducts"`
	CountedProducts int             `json:"countedProducts"`
	TotalExpected   int             `json:"totalExpected"`
	TotalCounted    int             `json:"totalCounted"`
	TotalVariance   int             `json:"totalVariance"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	Items           []VarianceItem  `json:"items"`
}

func Variances(db *gorm.DB, countID uint) (*VarianceSummary, error) {
	count, err := getCount(db, countID, true)
	if err != nil {
		return nil, err
	}

	summary := &VarianceSummary{
		TotalProducts: len(count.Items),
		TotalValue:    decimal.Zero,
		Items:         make([]VarianceItem, 0, len(count.Items)),
	}

	for _, item := range count.Items {
		if item.CountedQuantity != nil {
			summary.CountedProducts++
			summary.TotalCounted += *item.CountedQuantity
		}
		summary.TotalExpected += item.ExpectedQuantity
		if item.Variance != nil {
			summary.TotalVariance += *item.Variance
		}
		if item.Value != nil {
			summary.TotalValue = summary.TotalValue.Add(*item.Value)
		}

		summary.Items = append(summary.Items, VarianceItem{
			ProductID:        item.ProductID,
			ProductName:      item.Product.Name,
			ExpectedQuantity: item.ExpectedQuantity,
			CountedQuantity:  item.CountedQuantity,
			Variance:         item.Variance,
			Value:            item.Value,
			Status:           VarianceStatus(item.CountedQuantity, item.Variance),
		})
	}

	return summary, nil
}

type ReportLot struct {
	PurchaseDate      string          `json:"purchaseDate"`
	Year              int             `json:"year"`
	Quantity          int             `json:"quantity"`
	RemainingQuantity int             `json:"remainingQuantity"`
	UnitCost          decimal.Decimal `json:"unitCost"`
	LotValue          decimal.Decimal `json:"lotValue"`
	Supplier          string          `json:"supplier"`
}

type ReportItem struct {
	ProductID        uint             `json:"productId"`
	ProductName      string           `json:"productName"`
	SupplierName     string           `json:"supplierName"`
	ExpectedQuantity int              `json:"expectedQuantity"`
	CountedQuantity  *int             `json:"countedQuantity"`
	Variance         *int             `json:"variance"`
	Value            *decimal.Decimal `json:"value"`
	LotBreakdown     []ReportLot      `json:"lotBreakdown"`
}

type Report struct {
	Year          int             `json:"year"`
	Revision      int             `json:"revision"`
	Status        string          `json:"status"`
	ConfirmedAt   *time.Time      `json:"confirmedAt"`
	TotalExpected int             `json:"totalExpected"`
	TotalCounted  int             `json:"totalCounted"`
	TotalVariance int             `json:"totalVariance"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	Items         []ReportItem    `json:"items"`
}

// GenerateReport builds the full year-end report with a per-lot breakdown
// of the remaining stock behind every product line.
func GenerateReport(db *gorm.DB, countID uint) (*Report, error) {
	count, err := getCount(db, countID, true)
	if err != nil {
		return nil, err
	}

	SortItemsByProductName(count.Items)

	report := &Report{
		Year:        count.Year,
		Revision:    count.Revision,
		Status:      string(count.Status),
		ConfirmedAt: count.ConfirmedAt,
		TotalValue:  decimal.Zero,
		Items:       make([]ReportItem, 0, len(count.Items)),
	}

	for _, item := range count.Items {
		var lots []models.PurchaseLot
		if err := db.Preload("Supplier").
			Where("product_id = ? AND remaining_quantity > 0", item.ProductID).
			Order("purchase_date ASC, id ASC").
			Find(&lots).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load purchase lots")
		}

		breakdown := make([]ReportLot, 0, len(lots))
		for _, lot := range lots {
			supplierName := "Unknown"
			if lot.Supplier != nil {
				supplierName = lot.Supplier.Name
			} else if snap, err := lot.ParsedSupplierSnapshot(); err == nil && snap.Name != "" {
				supplierName = snap.Name
			}
			breakdown = append(breakdown, ReportLot{
				PurchaseDate:      lot.PurchaseDate.Format("2006-01-02"),
				Year:              lot.Year,
				Quantity:          lot.Quantity,
				RemainingQuantity: lot.RemainingQuantity,
				UnitCost:          lot.UnitCost,
				LotValue:          lot.LotValue(),
				Supplier:          supplierName,
			})
		}

		supplierName := ""
		if item.Product.Supplier != nil {
			supplierName = item.Product.Supplier.Name
		}

		report.TotalExpected += item.ExpectedQuantity
		if item.CountedQuantity != nil {
			report.TotalCounted += *item.CountedQuantity
		}
		if item.Value != nil {
			report.TotalValue = report.TotalValue.Add(*item.Value)
		}

		report.Items = append(report.Items, ReportItem{
			ProductID:        item.ProductID,
			ProductName:      item.Product.Name,
			SupplierName:     supplierName,
			ExpectedQuantity: item.ExpectedQuantity,
			CountedQuantity:  item.CountedQuantity,
			Variance:         item.Variance,
			Value:            item.Value,
			LotBreakdown:     breakdown,
		})
	}

	report.TotalVariance = report.TotalCounted - report.TotalExpected
	return report, nil
}

// Confirm finalizes a draft count: every product's lots are consumed down
// to the counted quantity and the year is locked, all in one transaction.
// A failure anywhere leaves the draft and the ledger untouched.
func Confirm(db *gorm.DB, countID uint, userID uint, userName string) (*models.YearEndCount, error) {
	count, err := getCount(db, countID, true)
	if err != nil {
		return nil, err
	}
	if count.Status == models.CountStatusConfirmed {
		return nil, fiber.NewError(fiber.StatusConflict, "Year-end count already confirmed")
	}

	if uncounted := UncountedProductIDs(count.Items); len(uncounted) > 0 {
		var names []string
		if err := db.Model(&models.Product{}).Where("id IN ?", uncounted).Order("id ASC").Pluck("name", &names).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load products")
		}
		return nil, fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Cannot confirm count. %d products not counted: %s", len(uncounted), strings.Join(names, ", ")))
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		for _, item := range count.Items {
			if err := inventory.ConsumeToTarget(tx, item.ProductID, *item.CountedQuantity); err != nil {
				return err
			}
		}

		if err := yearlock.Lock(tx, count.Year); err != nil {
			return err
		}

		now := time.Now()
		count.Status = models.CountStatusConfirmed
		count.ConfirmedAt = &now
		if err := tx.Model(&models.YearEndCount{}).Where("id = ?", count.ID).Updates(map[string]any{
			"status":       models.CountStatusConfirmed,
			"confirmed_at": now,
		}).Error; err != nil {
			return err
		}

		return audit.WriteLogTx(tx, audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "year_end_count",
			EntityID:    count.ID,
			Action:      models.AuditActionConfirm,
			Description: fmt.Sprintf("Year %d confirmed and locked (revision %d)", count.Year, count.Revision),
		})
	})
	if txErr != nil {
		if fe, ok := txErr.(*fiber.Error); ok {
			return nil, fe
		}
		config.LogError("yearend", "Confirm", fiber.Map{"countId": countID}, txErr)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not confirm year-end count")
	}

	return count, nil
}

type RevisionComparison struct {
	Year       int                 `json:"year"`
	Revision1  models.YearEndCount `json:"revision1"`
	Revision2  models.YearEndCount `json:"revision2"`
	Comparison []ItemComparison    `json:"comparison"`
}

func CompareRevisions(db *gorm.DB, year, rev1, rev2 int) (*RevisionComparison, error) {
	count1, err := GetByYear(db, year, &rev1)
	if err != nil {
		return nil, err
	}
	count2, err := GetByYear(db, year, &rev2)
	if err != nil {
		return nil, err
	}

	return &RevisionComparison{
		Year:       year,
		Revision1:  *count1,
		Revision2:  *count2,
		Comparison: CompareItems(count1.Items, count2.Items),
	}, nil
}

// PendingCountCheck powers the dashboard reminder: a count is pending when
// the latest purchase year has no confirmed count yet.
func PendingCountCheck(db *gorm.DB) (*PendingCount, error) {
	var latestPurchaseYear int
	if err := db.Model(&models.PurchaseLot{}).
		Select("COALESCE(MAX(year), 0)").
		Scan(&latestPurchaseYear).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not check purchases")
	}

	var latestCountYear int
	if err := db.Model(&models.YearEndCount{}).
		Where("status = ?", models.CountStatusConfirmed).
		Select("COALESCE(MAX(year), 0)").
		Scan(&latestCountYear).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not check year-end counts")
	}

	result := CheckPendingCount(latestPurchaseYear, latestCountYear)
	return &result, nil
}
