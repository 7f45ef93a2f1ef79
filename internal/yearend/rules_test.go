package yearend

import (
	"reflect"
	"testing"

	"stocktake-backend/internal/models"
)

func intPtr(v int) *int { return &v }

func TestVarianceStatus(t *testing.T) {
	tests := []struct {
		name     string
		counted  *int
		variance *int
		want     ItemStatus
	}{
		{"not yet counted", nil, nil, StatusPending},
		{"not counted ignores stale variance", nil, intPtr(5), StatusPending},
		{"counted equals expected", intPtr(100), intPtr(0), StatusExact},
		{"counted above expected", intPtr(110), intPtr(10), StatusSurplus},
		{"counted below expected", intPtr(95), intPtr(-5), StatusShortage},
		{"counted zero of zero expected", intPtr(0), intPtr(0), StatusExact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VarianceStatus(tt.counted, tt.variance); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextRevision(t *testing.T) {
	tests := []struct {
		maxExisting int
		want        int
	}{
		{0, 1},
		{-3, 1},
		{1, 2},
		{7, 8},
	}
	for _, tt := range tests {
		if got := NextRevision(tt.maxExisting); got != tt.want {
			t.Errorf("NextRevision(%d) = %d, want %d", tt.maxExisting, got, tt.want)
		}
	}
}

func TestCountProgress(t *testing.T) {
	tests := []struct {
		name  string
		items []models.YearEndCountItem
		want  Progress
	}{
		{
			name:  "no items",
			items: nil,
			want:  Progress{},
		},
		{
			name: "nothing counted",
			items: []models.YearEndCountItem{
				{ProductID: 1},
				{ProductID: 2},
			},
			want: Progress{Total: 2, Counted: 0, Percentage: 0},
		},
		{
			name: "half counted rounds",
			items: []models.YearEndCountItem{
				{ProductID: 1, CountedQuantity: intPtr(10)},
				{ProductID: 2},
				{ProductID: 3},
			},
			want: Progress{Total: 3, Counted: 1, Percentage: 33},
		},
		{
			name: "two thirds rounds up",
			items: []models.YearEndCountItem{
				{ProductID: 1, CountedQuantity: intPtr(10)},
				{ProductID: 2, CountedQuantity: intPtr(0)},
				{ProductID: 3},
			},
			want: Progress{Total: 3, Counted: 2, Percentage: 67},
		},
		{
			name: "all counted",
			items: []models.YearEndCountItem{
				{ProductID: 1, CountedQuantity: intPtr(1)},
				{ProductID: 2, CountedQuantity: intPtr(2)},
			},
			want: Progress{Total: 2, Counted: 2, Percentage: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountProgress(tt.items); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUncountedProductIDs(t *testing.T) {
	items := []models.YearEndCountItem{
		{ProductID: 1, CountedQuantity: intPtr(5)},
		{ProductID: 2},
		{ProductID: 3, CountedQuantity: intPtr(0)}, // zero is a valid count
		{ProductID: 4},
	}

	got := UncountedProductIDs(items)
	want := []uint{2, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := UncountedProductIDs(nil); got != nil {
		t.Errorf("empty count sheet: got %v, want nil", got)
	}
}

func TestSortItemsByProductName(t *testing.T) {
	items := []models.YearEndCountItem{
		{ProductID: 3, Product: models.Product{Name: "Sugar"}},
		{ProductID: 1, Product: models.Product{Name: "Flour"}},
		{ProductID: 4, Product: models.Product{Name: "Flour"}},
		{ProductID: 2, Product: models.Product{Name: "Butter"}},
	}

	SortItemsByProductName(items)

	wantNames := []string{"Butter", "Flour", "Flour", "Sugar"}
	for i, want := range wantNames {
		if items[i].Product.Name != want {
			t.Fatalf("position %d: got %s, want %s", i, items[i].Product.Name, want)
		}
	}
	// Equal names keep their relative order.
	if items[1].ProductID != 1 || items[2].ProductID != 4 {
		t.Errorf("duplicate names reordered: %d, %d", items[1].ProductID, items[2].ProductID)
	}
}

func TestCompareItems(t *testing.T) {
	product := models.Product{Name: "Widget"}

	rev1 := []models.YearEndCountItem{
		{ProductID: 1, Product: product, ExpectedQuantity: 100, CountedQuantity: intPtr(95), Variance: intPtr(-5)},
	}
	rev2 := []models.YearEndCountItem{
		{ProductID: 1, Product: product, ExpectedQuantity: 100, CountedQuantity: intPtr(90), Variance: intPtr(-10)},
	}

	out := CompareItems(rev1, rev2)
	if len(out) != 1 {
		t.Fatalf("got %d comparisons, want 1", len(out))
	}

	c := out[0]
	if *c.Revision1.CountedQuantity != 95 {
		t.Errorf("revision1 counted = %d, want 95", *c.Revision1.CountedQuantity)
	}
	if *c.Revision2.CountedQuantity != 90 {
		t.Errorf("revision2 counted = %d, want 90", *c.Revision2.CountedQuantity)
	}
	if c.Difference.CountedQuantity != -5 {
		t.Errorf("difference = %d, want -5", c.Difference.CountedQuantity)
	}
}

func TestCompareItemsDisjointProducts(t *testing.T) {
	rev1 := []models.YearEndCountItem{
		{ProductID: 1, Product: models.Product{Name: "A"}, CountedQuantity: intPtr(10)},
	}
	rev2 := []models.YearEndCountItem{
		{ProductID: 2, Product: models.Product{Name: "B"}, CountedQuantity: intPtr(4)},
	}

	out := CompareItems(rev1, rev2)
	if len(out) != 2 {
		t.Fatalf("got %d comparisons, want 2", len(out))
	}

	// Product only in revision 1: counting it dropped to zero.
	if out[0].ProductID != 1 || out[0].Difference.CountedQuantity != -10 {
		t.Errorf("rev1-only product: %+v", out[0])
	}
	// Product only in revision 2: appeared with its full count.
	if out[1].ProductID != 2 || out[1].Difference.CountedQuantity != 4 {
		t.Errorf("rev2-only product: %+v", out[1])
	}
	if out[1].Revision1.CountedQuantity != nil {
		t.Errorf("missing side must stay nil: %+v", out[1].Revision1)
	}
}

func TestCheckPendingCount(t *testing.T) {
	tests := []struct {
		name               string
		latestPurchaseYear int
		latestCountYear    int
		wantNeeds          bool
		wantPending        *int
	}{
		{"purchases but never counted", 2023, 0, true, intPtr(2023)},
		{"count up to date", 2023, 2023, false, nil},
		{"count ahead of purchases", 2022, 2023, false, nil},
		{"new purchase year after last count", 2024, 2023, true, intPtr(2024)},
		{"no purchases at all", 0, 0, false, nil},
		{"no purchases but old count exists", 0, 2022, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckPendingCount(tt.latestPurchaseYear, tt.latestCountYear)
			if got.NeedsCount != tt.wantNeeds {
				t.Errorf("needsCount = %v, want %v", got.NeedsCount, tt.wantNeeds)
			}
			if (got.PendingYear == nil) != (tt.wantPending == nil) {
				t.Fatalf("pendingYear = %v, want %v", got.PendingYear, tt.wantPending)
			}
			if got.PendingYear != nil && *got.PendingYear != *tt.wantPending {
				t.Errorf("pendingYear = %d, want %d", *got.PendingYear, *tt.wantPending)
			}
			if got.LatestPurchaseYear != tt.latestPurchaseYear || got.LatestCountYear != tt.latestCountYear {
				t.Errorf("echo fields wrong: %+v", got)
			}
		})
	}
}
