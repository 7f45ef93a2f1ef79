package fifo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func cost(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func applyPlan(lots []Lot, plan []Allocation) []Lot {
	byID := make(map[uint]int, len(plan))
	for _, a := range plan {
		byID[a.LotID] = a.NewRemaining
	}
	out := make([]Lot, len(lots))
	copy(out, lots)
	for i := range out {
		out[i].RemainingQuantity = byID[out[i].ID]
	}
	return out
}

func remainingOf(t *testing.T, lots []Lot, id uint) int {
	t.Helper()
	for _, l := range lots {
		if l.ID == id {
			return l.RemainingQuantity
		}
	}
	t.Fatalf("lot %d not found", id)
	return 0
}

func TestSortFIFO(t *testing.T) {
	tests := []struct {
		name   string
		lots   []Lot
		wantID []uint
	}{
		{
			name: "already sorted",
			lots: []Lot{
				{ID: 1, PurchaseDate: day("2022-01-01")},
				{ID: 2, PurchaseDate: day("2022-06-01")},
			},
			wantID: []uint{1, 2},
		},
		{
			name: "reverse insertion order",
			lots: []Lot{
				{ID: 3, PurchaseDate: day("2024-01-01")},
				{ID: 2, PurchaseDate: day("2023-01-01")},
				{ID: 1, PurchaseDate: day("2022-01-01")},
			},
			wantID: []uint{1, 2, 3},
		},
		{
			name: "shuffled insertion order",
			lots: []Lot{
				{ID: 2, PurchaseDate: day("2023-05-01")},
				{ID: 4, PurchaseDate: day("2024-02-01")},
				{ID: 1, PurchaseDate: day("2022-11-01")},
				{ID: 3, PurchaseDate: day("2023-12-01")},
			},
			wantID: []uint{1, 2, 3, 4},
		},
		{
			name: "same day breaks tie on id",
			lots: []Lot{
				{ID: 9, PurchaseDate: day("2023-01-01")},
				{ID: 4, PurchaseDate: day("2023-01-01")},
			},
			wantID: []uint{4, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortFIFO(tt.lots)
			for i, want := range tt.wantID {
				if tt.lots[i].ID != want {
					t.Errorf("position %d: got lot %d, want %d", i, tt.lots[i].ID, want)
				}
			}
		})
	}
}

func TestConsumptionPlanConservation(t *testing.T) {
	lots := []Lot{
		{ID: 1, PurchaseDate: day("2022-01-01"), Quantity: 100, RemainingQuantity: 100},
		{ID: 2, PurchaseDate: day("2022-06-01"), Quantity: 200, RemainingQuantity: 200},
		{ID: 3, PurchaseDate: day("2022-12-01"), Quantity: 300, RemainingQuantity: 300},
	}

	for _, target := range []int{0, 1, 99, 100, 101, 250, 300, 599, 600} {
		plan, err := ConsumptionPlan(lots, target)
		if err != nil {
			t.Fatalf("target %d: unexpected error: %v", target, err)
		}
		got := 0
		for _, a := range plan {
			got += a.NewRemaining
		}
		if got != target {
			t.Errorf("target %d: plan totals %d remaining", target, got)
		}
	}
}

func TestConsumptionPlanClampsAboveTotal(t *testing.T) {
	lots := []Lot{
		{ID: 1, PurchaseDate: day("2022-01-01"), Quantity: 10, RemainingQuantity: 4},
		{ID: 2, PurchaseDate: day("2023-01-01"), Quantity: 5, RemainingQuantity: 5},
	}

	plan, err := ConsumptionPlan(lots, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := applyPlan(lots, plan)
	for _, l := range after {
		if l.RemainingQuantity != l.Quantity {
			t.Errorf("lot %d: remaining %d, want full quantity %d", l.ID, l.RemainingQuantity, l.Quantity)
		}
	}
}

func TestConsumptionPlanOldestDepletesFirst(t *testing.T) {
	older := Lot{ID: 1, PurchaseDate: day("2022-03-01"), Quantity: 100, RemainingQuantity: 100}
	newer := Lot{ID: 2, PurchaseDate: day("2023-03-01"), Quantity: 200, RemainingQuantity: 200}
	lots := []Lot{older, newer}

	// Any target below the newer lot's quantity must zero the older lot
	// before the newer lot loses a single unit.
	for _, target := range []int{0, 1, 150, 199} {
		plan, err := ConsumptionPlan(lots, target)
		if err != nil {
			t.Fatalf("target %d: unexpected error: %v", target, err)
		}
		after := applyPlan(lots, plan)
		if got := remainingOf(t, after, older.ID); got != 0 {
			t.Errorf("target %d: older lot still has %d remaining", target, got)
		}
		if got := remainingOf(t, after, newer.ID); got != target {
			t.Errorf("target %d: newer lot keeps %d, want %d", target, got, target)
		}
	}

	// At or above the newer lot's quantity the newer lot stays full.
	plan, err := ConsumptionPlan(lots, 230)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := applyPlan(lots, plan)
	if got := remainingOf(t, after, newer.ID); got != 200 {
		t.Errorf("newer lot keeps %d, want 200", got)
	}
	if got := remainingOf(t, after, older.ID); got != 30 {
		t.Errorf("older lot keeps %d, want 30", got)
	}
}

func TestConsumptionPlanZeroTargetIdempotent(t *testing.T) {
	lots := []Lot{
		{ID: 1, PurchaseDate: day("2022-01-01"), Quantity: 10, RemainingQuantity: 10},
		{ID: 2, PurchaseDate: day("2023-01-01"), Quantity: 5, RemainingQuantity: 5},
	}

	for i := 0; i < 3; i++ {
		plan, err := ConsumptionPlan(lots, 0)
		if err != nil {
			t.Fatalf("pass %d: unexpected error: %v", i, err)
		}
		lots = applyPlan(lots, plan)
		for _, l := range lots {
			if l.RemainingQuantity != 0 {
				t.Errorf("pass %d: lot %d has %d remaining, want 0", i, l.ID, l.RemainingQuantity)
			}
		}
	}
}

func TestConsumptionPlanNegativeTarget(t *testing.T) {
	_, err := ConsumptionPlan(nil, -1)
	if err != ErrNegativeTarget {
		t.Fatalf("got %v, want ErrNegativeTarget", err)
	}
}

func TestValueMatchesRemainingTimesCost(t *testing.T) {
	lots := []Lot{
		{ID: 1, PurchaseDate: day("2022-01-01"), Quantity: 100, RemainingQuantity: 37, UnitCost: cost("1.25")},
		{ID: 2, PurchaseDate: day("2022-06-01"), Quantity: 50, RemainingQuantity: 50, UnitCost: cost("0.99")},
		{ID: 3, PurchaseDate: day("2023-01-01"), Quantity: 10, RemainingQuantity: 0, UnitCost: cost("3.40")},
	}

	want := cost("1.25").Mul(decimal.NewFromInt(37)).
		Add(cost("0.99").Mul(decimal.NewFromInt(50)))

	if got := Value(lots); !got.Equal(want) {
		t.Errorf("Value() = %s, want %s", got, want)
	}
}

func TestValueForQuantityWalksOldestFirst(t *testing.T) {
	lots := []Lot{
		{ID: 3, PurchaseDate: day("2023-12-01"), Quantity: 50, RemainingQuantity: 50, UnitCost: cost("3.00")},
		{ID: 1, PurchaseDate: day("2023-01-01"), Quantity: 20, RemainingQuantity: 20, UnitCost: cost("1.00")},
		{ID: 2, PurchaseDate: day("2023-06-01"), Quantity: 30, RemainingQuantity: 30, UnitCost: cost("2.00")},
	}

	// 60 units priced FIFO: 20 @ $1 + 30 @ $2 + 10 @ $3 = $110.
	value, lines := ValueForQuantity(lots, 60)
	if want := cost("110"); !value.Equal(want) {
		t.Errorf("value = %s, want %s", value, want)
	}

	wantLines := []ValuationLine{
		{LotID: 1, Quantity: 20, UnitCost: cost("1.00"), Value: cost("20")},
		{LotID: 2, Quantity: 30, UnitCost: cost("2.00"), Value: cost("60")},
		{LotID: 3, Quantity: 10, UnitCost: cost("3.00"), Value: cost("30")},
	}
	if len(lines) != len(wantLines) {
		t.Fatalf("got %d lines, want %d", len(lines), len(wantLines))
	}
	for i, want := range wantLines {
		if lines[i].LotID != want.LotID || lines[i].Quantity != want.Quantity || !lines[i].Value.Equal(want.Value) {
			t.Errorf("line %d: got lot %d qty %d value %s, want lot %d qty %d value %s",
				i, lines[i].LotID, lines[i].Quantity, lines[i].Value, want.LotID, want.Quantity, want.Value)
		}
	}
}

func TestValueForQuantityRunsOutOfStock(t *testing.T) {
	lots := []Lot{
		{ID: 1, PurchaseDate: day("2023-01-01"), Quantity: 20, RemainingQuantity: 5, UnitCost: cost("2.00")},
	}

	value, lines := ValueForQuantity(lots, 50)
	if want := cost("10"); !value.Equal(want) {
		t.Errorf("value = %s, want %s", value, want)
	}
	if len(lines) != 1 || lines[0].Quantity != 5 {
		t.Errorf("surplus units must not be priced: %+v", lines)
	}
}

func TestValueForQuantitySkipsEmptyLots(t *testing.T) {
	lots := []Lot{
		{ID: 1, PurchaseDate: day("2022-01-01"), Quantity: 10, RemainingQuantity: 0, UnitCost: cost("1.00")},
		{ID: 2, PurchaseDate: day("2023-01-01"), Quantity: 10, RemainingQuantity: 10, UnitCost: cost("4.00")},
	}

	value, lines := ValueForQuantity(lots, 8)
	if want := cost("32"); !value.Equal(want) {
		t.Errorf("value = %s, want %s", value, want)
	}
	if len(lines) != 1 || lines[0].LotID != 2 {
		t.Errorf("consumed lot must not appear in breakdown: %+v", lines)
	}
}

// Reproduces the multi-year count flow: one product, lots added over
// three years with successive physical counts.
func TestMultiYearConsumptionAndValuation(t *testing.T) {
	lotA := Lot{ID: 1, PurchaseDate: day("2022-01-15"), Quantity: 10, RemainingQuantity: 10, UnitCost: cost("1.00")}
	lots := []Lot{lotA}

	// 2022 count: 8 on the shelf.
	plan, err := ConsumptionPlan(lots, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lots = applyPlan(lots, plan)
	if got := remainingOf(t, lots, 1); got != 8 {
		t.Fatalf("lot A remaining = %d, want 8", got)
	}
	if got := Value(lots); !got.Equal(cost("8.00")) {
		t.Fatalf("2022 value = %s, want 8.00", got)
	}

	// 2023: 5 more units bought at $1.50, count finds 11.
	lots = append(lots, Lot{ID: 2, PurchaseDate: day("2023-01-20"), Quantity: 5, RemainingQuantity: 5, UnitCost: cost("1.50")})
	plan, err = ConsumptionPlan(lots, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lots = applyPlan(lots, plan)
	if got := remainingOf(t, lots, 1); got != 6 {
		t.Fatalf("lot A remaining = %d, want 6", got)
	}
	if got := remainingOf(t, lots, 2); got != 5 {
		t.Fatalf("lot B remaining = %d, want 5", got)
	}
	if got := Value(lots); !got.Equal(cost("13.50")) {
		t.Fatalf("2023 value = %s, want 13.50", got)
	}

	// 2024 count: one unit left.
	plan, err = ConsumptionPlan(lots, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lots = applyPlan(lots, plan)
	if got := remainingOf(t, lots, 1); got != 0 {
		t.Fatalf("lot A remaining = %d, want 0", got)
	}
	if got := remainingOf(t, lots, 2); got != 1 {
		t.Fatalf("lot B remaining = %d, want 1", got)
	}
	if got := Value(lots); !got.Equal(cost("1.50")) {
		t.Fatalf("2024 value = %s, want 1.50", got)
	}
}

func TestTotals(t *testing.T) {
	lots := []Lot{
		{ID: 1, Quantity: 20, RemainingQuantity: 3},
		{ID: 2, Quantity: 30, RemainingQuantity: 30},
		{ID: 3, Quantity: 50, RemainingQuantity: 0},
	}
	if got := Total(lots); got != 100 {
		t.Errorf("Total() = %d, want 100", got)
	}
	if got := TotalRemaining(lots); got != 33 {
		t.Errorf("TotalRemaining() = %d, want 33", got)
	}
}
