package models

import "time"

// Unit: measurement unit for products (pcs, kg, box...)
type Unit struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:50;not null;unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
