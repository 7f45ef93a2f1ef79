package database

import (
	"log"

	"stocktake-backend/internal/config"
	"stocktake-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Supplier{},
		&models.Unit{},
		&models.Product{},
		&models.PurchaseLot{},
		&models.YearEndCount{},
		&models.YearEndCountItem{},
		&models.LockedYear{},
		&models.YearUnlockAudit{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected, migration done.")
}
