package models

import "time"

// LockedYear: existence of a row means the year is closed. Lots dated in a
// locked year cannot be created, edited or deleted, and no new count
// revision may be initiated for it.
type LockedYear struct {
	ID        uint `gorm:"primaryKey"`
	Year      int  `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

type UnlockReason string

const (
	UnlockReasonDataError       UnlockReason = "data_error"
	UnlockReasonRecountRequired UnlockReason = "recount_required"
	UnlockReasonAuditAdjustment UnlockReason = "audit_adjustment"
	UnlockReasonOther           UnlockReason = "other"
)

func (r UnlockReason) IsValid() bool {
	switch r {
	case UnlockReasonDataError, UnlockReasonRecountRequired, UnlockReasonAuditAdjustment, UnlockReasonOther:
		return true
	}
	return false
}

// YearUnlockAudit: append-only trail of every unlock. Never deleted.
type YearUnlockAudit struct {
	ID             uint         `gorm:"primaryKey"`
	Year           int          `gorm:"index;not null"`
	ReasonCategory UnlockReason `gorm:"size:30;not null"`
	Description    string       `gorm:"size:500;not null"`
	CreatedAt      time.Time
}
