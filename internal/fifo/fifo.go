// Package fifo holds the pure first-in-first-out math used by inventory
// valuation and year-end consumption. It operates on plain lot values so
// it can be tested without a database.
//
// Two walks live here and they are intentionally separate:
//
//   - valuation walks oldest to newest and "spends" remaining stock to
//     price a quantity (ValueForQuantity),
//   - consumption walks newest to oldest and "keeps" stock to decide the
//     new remaining quantity per lot (ConsumptionPlan).
//
// Do not merge them. Keeping newest-first is what makes the oldest lots
// hit zero first, which is the FIFO assumption the valuation walk relies on.
package fifo

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNegativeTarget = errors.New("target quantity cannot be negative")

// Lot is the slice of a purchase lot the FIFO math cares about.
type Lot struct {
	ID                uint
	PurchaseDate      time.Time
	Quantity          int
	RemainingQuantity int
	UnitCost          decimal.Decimal
}

// SortFIFO orders lots oldest purchase first. Lots bought the same day
// fall back to insertion order (lower ID first) so the walk is stable.
func SortFIFO(lots []Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if lots[i].PurchaseDate.Equal(lots[j].PurchaseDate) {
			return lots[i].ID < lots[j].ID
		}
		return lots[i].PurchaseDate.Before(lots[j].PurchaseDate)
	})
}

// Total is the sum of purchased quantities over all lots.
func Total(lots []Lot) int {
	sum := 0
	for _, l := range lots {
		sum += l.Quantity
	}
	return sum
}

// TotalRemaining is the sum of remaining quantities over all lots.
func TotalRemaining(lots []Lot) int {
	sum := 0
	for _, l := range lots {
		sum += l.RemainingQuantity
	}
	return sum
}

// Value prices the remaining stock across all lots.
func Value(lots []Lot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		total = total.Add(l.UnitCost.Mul(decimal.NewFromInt(int64(l.RemainingQuantity))))
	}
	return total
}

// Allocation is one lot's new remaining quantity after a consumption plan.
type Allocation struct {
	LotID        uint
	NewRemaining int
}

// ConsumptionPlan decides, for a physical count of target units, how much
// of each lot is still on the shelf. It walks newest to oldest and keeps
// up to the lot's original purchased quantity, so the oldest lots are the
// ones that end up consumed. A target above total purchased quantity keeps
// every lot full rather than failing: a count can legitimately find more
// stock than the books expected.
//
// Every lot gets an allocation, including lots zeroed out, so applying
// the plan overwrites stale remaining quantities from earlier counts.
func ConsumptionPlan(lots []Lot, target int) ([]Allocation, error) {
	if target < 0 {
		return nil, ErrNegativeTarget
	}

	newestFirst := make([]Lot, len(lots))
	copy(newestFirst, lots)
	SortFIFO(newestFirst)
	for i, j := 0, len(newestFirst)-1; i < j; i, j = i+1, j-1 {
		newestFirst[i], newestFirst[j] = newestFirst[j], newestFirst[i]
	}

	remainingToAllocate := target
	plan := make([]Allocation, 0, len(newestFirst))

	for _, lot := range newestFirst {
		switch {
		case remainingToAllocate <= 0:
			plan = append(plan, Allocation{LotID: lot.ID, NewRemaining: 0})
		case remainingToAllocate >= lot.Quantity:
			plan = append(plan, Allocation{LotID: lot.ID, NewRemaining: lot.Quantity})
			remainingToAllocate -= lot.Quantity
		default:
			plan = append(plan, Allocation{LotID: lot.ID, NewRemaining: remainingToAllocate})
			remainingToAllocate = 0
		}
	}

	return plan, nil
}

// ValuationLine is one lot's contribution when pricing a quantity.
type ValuationLine struct {
	LotID    uint
	Quantity int
	UnitCost decimal.Decimal
	Value    decimal.Decimal
}

// ValueForQuantity prices quantity units of stock at FIFO cost: it walks
// lots oldest to newest, taking up to each lot's remaining quantity at
// that lot's unit cost. If quantity exceeds the remaining stock the walk
// simply runs out; the surplus units carry no cost basis.
func ValueForQuantity(lots []Lot, quantity int) (decimal.Decimal, []ValuationLine) {
	oldestFirst := make([]Lot, len(lots))
	copy(oldestFirst, lots)
	SortFIFO(oldestFirst)

	remainingToValue := quantity
	total := decimal.Zero
	lines := make([]ValuationLine, 0, len(oldestFirst))

	for _, lot := range oldestFirst {
		if remainingToValue <= 0 {
			break
		}
		if lot.RemainingQuantity <= 0 {
			continue
		}

		take := lot.RemainingQuantity
		if remainingToValue < take {
			take = remainingToValue
		}

		lineValue := lot.UnitCost.Mul(decimal.NewFromInt(int64(take)))
		total = total.Add(lineValue)
		remainingToValue -= take

		lines = append(lines, ValuationLine{
			LotID:    lot.ID,
			Quantity: take,
			UnitCost: lot.UnitCost,
			Value:    lineValue,
		})
	}

	return total, lines
}
