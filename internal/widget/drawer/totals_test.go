package drawer

import (
	"testing"

	"github.com/niaga-platform/service-cartdrawer/internal/widget/loader"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/storefront"
)

func TestEnhancedTotal(t *testing.T) {
	cart := &storefront.Cart{TotalPrice: 5000}
	upsells := []loader.Product{
		{ProductID: "u1", PriceMinorUnits: 999},
		{ProductID: "u2", PriceMinorUnits: 2500},
	}
	addOns := []loader.Product{
		{ProductID: "a1", PriceMinorUnits: 450},
	}

	tests := []struct {
		name string
		sel  Selection
		want int64
	}{
		{"nothing selected", NewSelection(nil), 5000},
		{"one upsell", Selection{UpsellIDs: map[string]bool{"u1": true}, AddOnIDs: map[string]bool{}}, 5999},
		{"upsell and add-on", Selection{UpsellIDs: map[string]bool{"u1": true}, AddOnIDs: map[string]bool{"a1": true}}, 6449},
		{"all selected", Selection{UpsellIDs: map[string]bool{"u1": true, "u2": true}, AddOnIDs: map[string]bool{"a1": true}}, 8949},
		{"selection of unknown product ignored", Selection{UpsellIDs: map[string]bool{"missing": true}, AddOnIDs: map[string]bool{}}, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnhancedTotal(cart, tt.sel, upsells, addOns); got != tt.want {
				t.Errorf("EnhancedTotal = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEnhancedTotalNilCart(t *testing.T) {
	sel := Selection{UpsellIDs: map[string]bool{"u1": true}, AddOnIDs: map[string]bool{}}
	got := EnhancedTotal(nil, sel, []loader.Product{{ProductID: "u1", PriceMinorUnits: 100}}, nil)
	if got != 100 {
		t.Errorf("EnhancedTotal = %d, want 100", got)
	}
}

func TestComputeFreeShipping(t *testing.T) {
	tests := []struct {
		name          string
		threshold     int64
		total         int64
		wantQualified bool
		wantRemaining int64
		wantPercent   float64
	}{
		{"below threshold", 5000, 2500, false, 2500, 50},
		{"exactly at threshold", 5000, 5000, true, 0, 100},
		{"above threshold", 5000, 6000, true, 0, 100},
		{"empty cart", 5000, 0, false, 5000, 0},
		{"zero threshold always qualifies", 0, 0, true, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeFreeShipping(tt.threshold, tt.total)
			if got.Qualified != tt.wantQualified {
				t.Errorf("Qualified = %v, want %v", got.Qualified, tt.wantQualified)
			}
			if got.RemainingMinorUnits != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", got.RemainingMinorUnits, tt.wantRemaining)
			}
			if got.ProgressPercent != tt.wantPercent {
				t.Errorf("Percent = %v, want %v", got.ProgressPercent, tt.wantPercent)
			}
		})
	}
}

func TestNewSelectionCopiesSeed(t *testing.T) {
	seed := map[string]bool{"a1": true, "a2": false}
	sel := NewSelection(seed)

	if !sel.AddOnIDs["a1"] || sel.AddOnIDs["a2"] {
		t.Errorf("AddOnIDs = %v", sel.AddOnIDs)
	}
	sel.AddOnIDs["a1"] = false
	if !seed["a1"] {
		t.Error("mutating the selection changed the seed map")
	}
}
