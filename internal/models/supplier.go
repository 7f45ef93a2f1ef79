package models

import "time"

type Supplier struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:100;not null;unique"`
	ContactPerson string `gorm:"size:100"`
	Email         string `gorm:"size:100"`
	Phone         string `gorm:"size:50"`
	Address       string `gorm:"size:255"`
	City          string `gorm:"size:100"`
	Country       string `gorm:"size:100"`
	TaxID         string `gorm:"size:50"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
