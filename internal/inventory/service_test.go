package inventory

import (
	"testing"

	"stocktake-backend/internal/models"

	"github.com/shopspring/decimal"
)

func uintPtr(v uint) *uint { return &v }

func TestAggregateLots(t *testing.T) {
	flour := &models.Product{ID: 1, Name: "Flour", Unit: models.Unit{Name: "kg"}}
	sugar := &models.Product{ID: 2, Name: "Sugar", Unit: models.Unit{Name: "kg"}}

	lots := []models.PurchaseLot{
		{ID: 1, ProductID: uintPtr(1), Product: flour, RemainingQuantity: 20, UnitCost: decimal.RequireFromString("1.00")},
		{ID: 2, ProductID: uintPtr(2), Product: sugar, RemainingQuantity: 5, UnitCost: decimal.RequireFromString("3.00")},
		{ID: 3, ProductID: uintPtr(1), Product: flour, RemainingQuantity: 10, UnitCost: decimal.RequireFromString("1.50")},
	}

	got := aggregateLots(lots)

	if got.TotalQuantity != 35 {
		t.Errorf("total quantity = %d, want 35", got.TotalQuantity)
	}
	if want := decimal.RequireFromString("50.00"); !got.TotalValue.Equal(want) {
		t.Errorf("total value = %s, want %s", got.TotalValue, want)
	}
	if len(got.Products) != 2 {
		t.Fatalf("got %d product lines, want 2", len(got.Products))
	}

	f := got.Products[0]
	if f.ProductID != 1 || f.ProductName != "Flour" || f.UnitName != "kg" {
		t.Errorf("flour line: %+v", f)
	}
	if f.Quantity != 30 || !f.Value.Equal(decimal.RequireFromString("35.00")) {
		t.Errorf("flour line totals: qty %d value %s", f.Quantity, f.Value)
	}

	s := got.Products[1]
	if s.Quantity != 5 || !s.Value.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("sugar line totals: qty %d value %s", s.Quantity, s.Value)
	}
}

func TestAggregateLotsSkipsDeletedProducts(t *testing.T) {
	flour := &models.Product{ID: 1, Name: "Flour", Unit: models.Unit{Name: "kg"}}

	lots := []models.PurchaseLot{
		{ID: 1, ProductID: uintPtr(1), Product: flour, RemainingQuantity: 10, UnitCost: decimal.RequireFromString("2.00")},
		// Product deleted: FK nulled, only the snapshot remains.
		{ID: 2, ProductID: nil, RemainingQuantity: 7, UnitCost: decimal.RequireFromString("4.00"),
			ProductSnapshot: `{"id":9,"name":"Old Yeast","unit_name":"pkg"}`},
	}

	got := aggregateLots(lots)

	if len(got.Products) != 1 {
		t.Fatalf("got %d product lines, want 1", len(got.Products))
	}
	if got.Products[0].ProductID != 1 {
		t.Errorf("kept product = %d, want 1", got.Products[0].ProductID)
	}
	if got.TotalQuantity != 10 {
		t.Errorf("total quantity = %d, want 10", got.TotalQuantity)
	}
	if want := decimal.RequireFromString("20.00"); !got.TotalValue.Equal(want) {
		t.Errorf("total value = %s, want %s", got.TotalValue, want)
	}
}

func TestAggregateLotsEmpty(t *testing.T) {
	got := aggregateLots(nil)
	if got.TotalQuantity != 0 || !got.TotalValue.Equal(decimal.Zero) || len(got.Products) != 0 {
		t.Errorf("empty input: %+v", got)
	}
}
