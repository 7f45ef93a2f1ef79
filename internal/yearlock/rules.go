package yearlock

import (
	"fmt"
	"strings"

	"stocktake-backend/internal/models"
)

// CheckUnlock is the pure precondition for unlocking a year. Unlocks are
// strictly last-in-first-out: only the most recently locked year may be
// unlocked, so rolling back two years means two explicit unlocks with two
// audit entries. mostRecent is nil when no year is locked at all.
func CheckUnlock(year int, locked bool, mostRecent *int) error {
	if !locked {
		return fmt.Errorf("Year %d is not locked", year)
	}
	if mostRecent != nil && *mostRecent != year {
		return fmt.Errorf("Can only unlock most recently locked year (%d)", *mostRecent)
	}
	return nil
}

type LotOp string

const (
	LotOpCreate LotOp = "create"
	LotOpUpdate LotOp = "update"
	LotOpMove   LotOp = "move"
	LotOpDelete LotOp = "delete"
)

// CheckMutable is the pure gate for ledger writes: a lot dated in a
// locked year cannot be created, updated, moved into, or deleted.
func CheckMutable(op LotOp, year int, locked bool) error {
	if !locked {
		return nil
	}
	switch op {
	case LotOpCreate:
		return fmt.Errorf("Cannot create purchase for locked year %d", year)
	case LotOpUpdate:
		return fmt.Errorf("Cannot update purchase from locked year %d", year)
	case LotOpMove:
		return fmt.Errorf("Cannot move purchase to locked year %d", year)
	case LotOpDelete:
		return fmt.Errorf("Cannot delete purchase from locked year %d", year)
	}
	return fmt.Errorf("Cannot modify purchase in locked year %d", year)
}

// CheckUnlockReason validates the audit fields of an unlock request.
func CheckUnlockReason(category models.UnlockReason, description string) error {
	if !category.IsValid() {
		return fmt.Errorf("Invalid reason category: %s. Must be one of: data_error, recount_required, audit_adjustment, other", category)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("Description is required")
	}
	return nil
}
