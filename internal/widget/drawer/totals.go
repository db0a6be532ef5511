package drawer

import (
	"github.com/niaga-platform/service-cartdrawer/internal/widget/loader"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/storefront"
)

// Selection is the client-side upsell/add-on selection state. It is purely
// presentational, never persisted, and resets on full page reload; selected
// offers do not enter the real cart until the shopper takes an explicit add
// action.
type Selection struct {
	UpsellIDs map[string]bool
	AddOnIDs  map[string]bool
}

// NewSelection creates an empty selection seeded with the given add-on IDs.
func NewSelection(selectedAddOnIDs map[string]bool) Selection {
	addOns := make(map[string]bool, len(selectedAddOnIDs))
	for id, on := range selectedAddOnIDs {
		if on {
			addOns[id] = true
		}
	}
	return Selection{
		UpsellIDs: make(map[string]bool),
		AddOnIDs:  addOns,
	}
}

// EnhancedTotal is the displayed total: the server cart total plus the
// prices of every selected upsell and add-on. Pure function of its inputs;
// recomputed on every render, never cached.
func EnhancedTotal(cart *storefront.Cart, sel Selection, upsells, addOns []loader.Product) int64 {
	total := int64(0)
	if cart != nil {
		total = cart.TotalPrice
	}
	for _, p := range upsells {
		if sel.UpsellIDs[p.ProductID] {
			total += p.PriceMinorUnits
		}
	}
	for _, p := range addOns {
		if sel.AddOnIDs[p.ProductID] {
			total += p.PriceMinorUnits
		}
	}
	return total
}

// FreeShippingProgress describes the free-shipping bar state. Reaching the
// threshold exactly counts as qualified.
type FreeShippingProgress struct {
	Qualified           bool
	RemainingMinorUnits int64
	ProgressPercent     float64
}

// ComputeFreeShipping derives the progress state from the threshold and the
// enhanced total. A non-positive threshold always qualifies.
func ComputeFreeShipping(thresholdMinorUnits, enhancedTotal int64) FreeShippingProgress {
	if thresholdMinorUnits <= 0 {
		return FreeShippingProgress{Qualified: true, ProgressPercent: 100}
	}
	remaining := thresholdMinorUnits - enhancedTotal
	if remaining <= 0 {
		return FreeShippingProgress{Qualified: true, ProgressPercent: 100}
	}
	percent := float64(enhancedTotal) / float64(thresholdMinorUnits) * 100
	if percent < 0 {
		percent = 0
	}
	return FreeShippingProgress{
		Qualified:           false,
		RemainingMinorUnits: remaining,
		ProgressPercent:     percent,
	}
}
