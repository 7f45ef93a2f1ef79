package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CountStatus string

const (
	CountStatusDraft     CountStatus = "draft"
	CountStatusConfirmed CountStatus = "confirmed"
)

// YearEndCount: one physical stocktake attempt for a year. A year can be
// counted more than once (revision increments) as long as it is unlocked.
type YearEndCount struct {
	ID          uint        `gorm:"primaryKey"`
	Year        int         `gorm:"uniqueIndex:idx_counts_year_revision;not null"`
	Revision    int         `gorm:"uniqueIndex:idx_counts_year_revision;not null"`
	Status      CountStatus `gorm:"size:20;not null;default:draft"`
	ConfirmedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []YearEndCountItem `gorm:"foreignKey:YearEndCountID"`
}

// YearEndCountItem: one product line on the count sheet.
// ExpectedQuantity is frozen at initiation; variance and value follow the
// counted quantity and are recomputed on every update.
type YearEndCountItem struct {
	ID               uint `gorm:"primaryKey"`
	YearEndCountID   uint `gorm:"index;not null"`
	ProductID        uint `gorm:"index;not null"`
	Product          Product
	ExpectedQuantity int `gorm:"not null"`
	CountedQuantity  *int
	Variance         *int
	Value            *decimal.Decimal `gorm:"type:numeric(20,4)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
