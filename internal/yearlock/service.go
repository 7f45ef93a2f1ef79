package yearlock

import (
	"errors"
	"fmt"

	"stocktake-backend/internal/audit"
	"stocktake-backend/internal/config"
	"stocktake-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func IsLocked(db *gorm.DB, year int) (bool, error) {
	var count int64
	if err := db.Model(&models.LockedYear{}).Where("year = ?", year).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MostRecentLocked returns the most recently locked year, nil when no year
// is locked. "Most recent" means latest lock time, not largest year number:
// after unlocking 2023 and re-confirming 2022, 2022 is the most recent.
func MostRecentLocked(db *gorm.DB) (*models.LockedYear, error) {
	var locked models.LockedYear
	err := db.Order("created_at DESC").First(&locked).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &locked, nil
}

func LockedYears(db *gorm.DB) ([]models.LockedYear, error) {
	var years []models.LockedYear
	if err := db.Order("year DESC").Find(&years).Error; err != nil {
		return nil, err
	}
	return years, nil
}

// Lock closes a year. Called from count confirmation inside its transaction.
func Lock(tx *gorm.DB, year int) error {
	return tx.Create(&models.LockedYear{Year: year}).Error
}

// Unlock removes the lock on a year after the LIFO and reason checks pass.
// The audit entry and the lock removal commit in one transaction, plus an
// entry in the general audit log, so an unlock can never happen silently.
func Unlock(db *gorm.DB, year int, category models.UnlockReason, description string, userID uint, userName string) error {
	if err := CheckUnlockReason(category, description); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	locked, err := IsLocked(db, year)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not check year lock")
	}

	mostRecent, err := MostRecentLocked(db)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not check year lock")
	}
	var mostRecentYear *int
	if mostRecent != nil {
		mostRecentYear = &mostRecent.Year
	}

	if err := CheckUnlock(year, locked, mostRecentYear); err != nil {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		auditRow := models.YearUnlockAudit{
			Year:           year,
			ReasonCategory: category,
			Description:    description,
		}
		if err := tx.Create(&auditRow).Error; err != nil {
			return err
		}

		if err := tx.Where("year = ?", year).Delete(&models.LockedYear{}).Error; err != nil {
			return err
		}

		return audit.WriteLogTx(tx, audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "locked_year",
			EntityID:    uint(year),
			Action:      models.AuditActionUnlock,
			Description: fmt.Sprintf("Unlocked year %d (%s)", year, category),
			After:       auditRow,
		})
	})
	if txErr != nil {
		config.LogError("yearlock", "Unlock", fiber.Map{"year": year}, txErr)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not unlock year")
	}

	return nil
}

func UnlockHistory(db *gorm.DB, year int) ([]models.YearUnlockAudit, error) {
	var history []models.YearUnlockAudit
	if err := db.Where("year = ?", year).Order("created_at ASC").Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}
