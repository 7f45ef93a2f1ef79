package models

import "time"

type Product struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;unique"`
	Description string `gorm:"size:255"`
	UnitID      uint   `gorm:"index;not null"`
	Unit        Unit
	SupplierID  *uint // default supplier, optional
	Supplier    *Supplier
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
