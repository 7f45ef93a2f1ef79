package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseLot: one purchase event. Quantity is what was bought,
// RemainingQuantity is what is still on the shelf after year-end counts.
// Invariant: 0 <= RemainingQuantity <= Quantity, always.
type PurchaseLot struct {
	ID                uint  `gorm:"primaryKey"`
	ProductID         *uint `gorm:"index"` // nullable: lot survives product deletion
	Product           *Product
	SupplierID        *uint `gorm:"index"`
	Supplier          *Supplier
	PurchaseDate      time.Time       `gorm:"index;not null"`
	Year              int             `gorm:"index;not null"` // derived from PurchaseDate, kept for fast lock checks
	Quantity          int             `gorm:"not null"`
	RemainingQuantity int             `gorm:"not null"`
	UnitCost          decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	// Immutable snapshots taken at creation so historical lots render
	// correctly even after the product or supplier is edited or deleted.
	ProductSnapshot  string `gorm:"type:jsonb;not null"`
	SupplierSnapshot string `gorm:"type:jsonb;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LotValue is what the leftover stock in this lot is worth.
func (l *PurchaseLot) LotValue() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.RemainingQuantity)))
}

type ProductSnapshotData struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UnitID      uint   `json:"unit_id"`
	UnitName    string `json:"unit_name"`
	SupplierID  *uint  `json:"supplier_id"`
}

type SupplierSnapshotData struct {
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

func SnapshotProduct(p *Product) string {
	data := ProductSnapshotData{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitID:      p.UnitID,
		UnitName:    p.Unit.Name,
		SupplierID:  p.SupplierID,
	}
	b, _ := json.Marshal(data)
	return string(b)
}

func (l *PurchaseLot) ParsedProductSnapshot() (*ProductSnapshotData, error) {
	var data ProductSnapshotData
	if err := json.Unmarshal([]byte(l.ProductSnapshot), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (l *PurchaseLot) ParsedSupplierSnapshot() (*SupplierSnapshotData, error) {
	var data SupplierSnapshotData
	if err := json.Unmarshal([]byte(l.SupplierSnapshot), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func SnapshotSupplier(s *Supplier) string {
	data := SupplierSnapshotData{
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
	b, _ := json.Marshal(data)
	return string(b)
}
