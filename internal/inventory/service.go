package inventory

import (
	"errors"

	"stocktake-backend/internal/fifo"
	"stocktake-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func toFIFOLots(lots []models.PurchaseLot) []fifo.Lot {
	out := make([]fifo.Lot, 0, len(lots))
	for _, l := range lots {
		out = append(out, fifo.Lot{
			ID:                l.ID,
			PurchaseDate:      l.PurchaseDate,
			Quantity:          l.Quantity,
			RemainingQuantity: l.RemainingQuantity,
			UnitCost:          l.UnitCost,
		})
	}
	return out
}

// ConsumeToTarget adjusts a product's lots so the total remaining quantity
// equals target, consuming oldest lots first. All lot updates apply in one
// transaction; a product with no lots is a no-op.
func ConsumeToTarget(db *gorm.DB, productID uint, target int) error {
	if target < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Target quantity cannot be negative")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var lots []models.PurchaseLot
		if err := tx.Where("product_id = ?", productID).Find(&lots).Error; err != nil {
			return err
		}
		if len(lots) == 0 {
			return nil
		}

		plan, err := fifo.ConsumptionPlan(toFIFOLots(lots), target)
		if err != nil {
			if errors.Is(err, fifo.ErrNegativeTarget) {
				return fiber.NewError(fiber.StatusBadRequest, "Target quantity cannot be negative")
			}
			return err
		}

		for _, a := range plan {
			if err := tx.Model(&models.PurchaseLot{}).
				Where("id = ?", a.LotID).
				Update("remaining_quantity", a.NewRemaining).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CurrentQuantity is the remaining stock of a product over all its lots.
func CurrentQuantity(db *gorm.DB, productID uint) (int, error) {
	var lots []models.PurchaseLot
	if err := db.Where("product_id = ?", productID).Find(&lots).Error; err != nil {
		return 0, err
	}
	return fifo.TotalRemaining(toFIFOLots(lots)), nil
}

type LotValueLine struct {
	LotID             uint            `json:"lot_id"`
	PurchaseDate      string          `json:"purchase_date"`
	Quantity          int             `json:"quantity"`
	RemainingQuantity int             `json:"remaining_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	LotValue          decimal.Decimal `json:"lot_value"`
}

type ProductValue struct {
	ProductID     uint            `json:"product_id"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	Lots          []LotValueLine  `json:"lots"`
}

// CurrentValue prices a product's remaining stock at FIFO cost with a
// per-lot breakdown, oldest lot first.
func CurrentValue(db *gorm.DB, productID uint) (*ProductValue, error) {
	var lots []models.PurchaseLot
	if err := db.Where("product_id = ? AND remaining_quantity > 0", productID).
		Order("purchase_date ASC, id ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}

	result := &ProductValue{
		ProductID:  productID,
		TotalValue: decimal.Zero,
		Lots:       make([]LotValueLine, 0, len(lots)),
	}

	for _, l := range lots {
		lotValue := l.LotValue()
		result.TotalQuantity += l.RemainingQuantity
		result.TotalValue = result.TotalValue.Add(lotValue)
		result.Lots = append(result.Lots, LotValueLine{
			LotID:             l.ID,
			PurchaseDate:      l.PurchaseDate.Format("2006-01-02"),
			Quantity:          l.Quantity,
			RemainingQuantity: l.RemainingQuantity,
			UnitCost:          l.UnitCost,
			LotValue:          lotValue,
		})
	}

	return result, nil
}

type AggregateProductLine struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitName    string          `json:"unit_name"`
	Quantity    int             `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
}

type AggregateValue struct {
	TotalQuantity int                    `json:"total_quantity"`
	TotalValue    decimal.Decimal        `json:"total_value"`
	Products      []AggregateProductLine `json:"products"`
}

// Aggregate sums remaining stock and FIFO value per product, optionally
// restricted to lots of one supplier. Lots whose product has been deleted
// carry no product line and are left out entirely.
func Aggregate(db *gorm.DB, supplierID *uint) (*AggregateValue, error) {
	q := db.Preload("Product").Preload("Product.Unit").
		Where("remaining_quantity > 0")
	if supplierID != nil {
		q = q.Where("supplier_id = ?", *supplierID)
	}

	var lots []models.PurchaseLot
	if err := q.Order("purchase_date ASC, id ASC").Find(&lots).Error; err != nil {
		return nil, err
	}

	return aggregateLots(lots), nil
}

func aggregateLots(lots []models.PurchaseLot) *AggregateValue {
	byProduct := make(map[uint]*AggregateProductLine)
	order := make([]uint, 0)
	result := &AggregateValue{TotalValue: decimal.Zero}

	for _, l := range lots {
		if l.ProductID == nil {
			continue
		}

		lotValue := l.LotValue()
		result.TotalQuantity += l.RemainingQuantity
		result.TotalValue = result.TotalValue.Add(lotValue)

		name := ""
		unitName := ""
		if l.Product != nil {
			name = l.Product.Name
			unitName = l.Product.Unit.Name
		} else if snap, err := l.ParsedProductSnapshot(); err == nil {
			name = snap.Name
			unitName = snap.UnitName
		}

		line, ok := byProduct[*l.ProductID]
		if !ok {
			line = &AggregateProductLine{
				ProductID:   *l.ProductID,
				ProductName: name,
				UnitName:    unitName,
				Value:       decimal.Zero,
			}
			byProduct[*l.ProductID] = line
			order = append(order, *l.ProductID)
		}
		line.Quantity += l.RemainingQuantity
		line.Value = line.Value.Add(lotValue)
	}

	result.Products = make([]AggregateProductLine, 0, len(order))
	for _, id := range order {
		result.Products = append(result.Products, *byProduct[id])
	}

	return result
}
