package yearlock

import (
	"strings"
	"testing"

	"stocktake-backend/internal/models"
)

func intPtr(v int) *int { return &v }

func TestCheckUnlock(t *testing.T) {
	tests := []struct {
		name       string
		year       int
		locked     bool
		mostRecent *int
		wantErr    string
	}{
		{
			name:       "most recent locked year unlocks",
			year:       2023,
			locked:     true,
			mostRecent: intPtr(2023),
		},
		{
			name:       "older locked year is refused",
			year:       2022,
			locked:     true,
			mostRecent: intPtr(2023),
			wantErr:    "Can only unlock most recently locked year (2023)",
		},
		{
			name:    "year not locked at all",
			year:    2023,
			locked:  false,
			wantErr: "Year 2023 is not locked",
		},
		{
			name:       "recency follows lock time not year number",
			year:       2024,
			locked:     true,
			mostRecent: intPtr(2022),
			wantErr:    "Can only unlock most recently locked year (2022)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUnlock(tt.year, tt.locked, tt.mostRecent)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("got %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckMutable(t *testing.T) {
	// Every ledger write against an unlocked year passes.
	for _, op := range []LotOp{LotOpCreate, LotOpUpdate, LotOpMove, LotOpDelete} {
		if err := CheckMutable(op, 2023, false); err != nil {
			t.Errorf("op %s on unlocked year: unexpected error: %v", op, err)
		}
	}

	tests := []struct {
		name    string
		op      LotOp
		year    int
		wantErr string
	}{
		{"create into locked year", LotOpCreate, 2023, "Cannot create purchase for locked year 2023"},
		{"update lot in locked year", LotOpUpdate, 2023, "Cannot update purchase from locked year 2023"},
		{"date change into locked year", LotOpMove, 2022, "Cannot move purchase to locked year 2022"},
		{"delete lot in locked year", LotOpDelete, 2023, "Cannot delete purchase from locked year 2023"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMutable(tt.op, tt.year, true)
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("got %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckUnlockReason(t *testing.T) {
	for _, category := range []models.UnlockReason{
		models.UnlockReasonDataError,
		models.UnlockReasonRecountRequired,
		models.UnlockReasonAuditAdjustment,
		models.UnlockReasonOther,
	} {
		if err := CheckUnlockReason(category, "fat-fingered a lot quantity"); err != nil {
			t.Errorf("category %s: unexpected error: %v", category, err)
		}
	}

	if err := CheckUnlockReason("invalid_category", "whatever"); err == nil || !strings.Contains(err.Error(), "Invalid reason category") {
		t.Errorf("invalid category: got %v", err)
	}

	for _, desc := range []string{"", "   ", "\t\n"} {
		if err := CheckUnlockReason(models.UnlockReasonDataError, desc); err == nil || err.Error() != "Description is required" {
			t.Errorf("description %q: got %v", desc, err)
		}
	}
}
