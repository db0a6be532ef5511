package loader

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Alias tables for the raw provider payload. Historical script generations
// renamed flags without migrating stored documents, so the same logical
// field can arrive under any of these keys. A logical flag is enabled if ANY
// recognized alias is truthy; a field absent under every alias takes the
// documented default.
var (
	aliasesDrawerEnabled = []string{"cartDrawerEnabled", "cart_drawer_enabled", "drawerEnabled", "enabled"}
	aliasesPosition      = []string{"drawerPosition", "drawer_position", "position"}
	aliasesThemeColor    = []string{"themeColor", "theme_color", "color", "accentColor"}

	aliasesStickyEnabled  = []string{"stickyButtonEnabled", "sticky_button_enabled", "showStickyButton", "sticky_cart_enabled"}
	aliasesStickyText     = []string{"stickyButtonText", "sticky_button_text", "buttonText"}
	aliasesStickyPosition = []string{"stickyButtonPosition", "sticky_button_position", "buttonPosition"}

	aliasesShippingEnabled   = []string{"freeShippingEnabled", "free_shipping_enabled", "shippingBarEnabled", "shipping_bar_enabled", "showFreeShippingBar"}
	aliasesShippingThreshold = []string{"freeShippingThreshold", "free_shipping_threshold", "shippingThreshold", "shipping_goal"}

	aliasesUpsellsEnabled = []string{"upsellsEnabled", "upsells_enabled", "showUpsells", "upsell_enabled"}
	aliasesAddOnsEnabled  = []string{"addOnsEnabled", "add_ons_enabled", "addonsEnabled", "showAddons"}

	aliasesDiscountEnabled = []string{"discountBarEnabled", "discount_bar_enabled", "showDiscountBar"}
	aliasesDiscountCode    = []string{"discountCode", "discount_code", "discount_bar_code"}

	aliasesAnnouncement = []string{"announcementText", "announcement_text", "announcement"}
	aliasesCurrency     = []string{"currency", "currency_code", "shopCurrency"}
)

// Normalize maps a raw provider payload into the canonical Settings model.
// It is pure: no I/O, no mutation of raw, deterministic output. A nil or
// empty payload yields Defaults exactly.
func Normalize(raw map[string]any) Settings {
	s := Defaults()
	if len(raw) == 0 {
		return s
	}

	s.CartDrawerEnabled = boolAlias(raw, aliasesDrawerEnabled, s.CartDrawerEnabled)
	if pos, ok := stringAlias(raw, aliasesPosition); ok {
		if pos == "left" || pos == "right" {
			s.DrawerPosition = pos
		}
	}
	if color, ok := stringAlias(raw, aliasesThemeColor); ok {
		s.ThemeColor = color
	}

	s.StickyButton.Enabled = boolAlias(raw, aliasesStickyEnabled, s.StickyButton.Enabled)
	if text, ok := stringAlias(raw, aliasesStickyText); ok {
		s.StickyButton.Text = text
	}
	if pos, ok := stringAlias(raw, aliasesStickyPosition); ok {
		switch pos {
		case PositionBottomRight, PositionBottomLeft, PositionTopRight, PositionTopLeft:
			s.StickyButton.Position = pos
		}
	}

	s.FreeShipping.Enabled = boolAlias(raw, aliasesShippingEnabled, s.FreeShipping.Enabled)
	if threshold, ok := intAlias(raw, aliasesShippingThreshold); ok && threshold >= 0 {
		s.FreeShipping.ThresholdMinorUnits = threshold
	}

	s.Upsells.Enabled = boolAlias(raw, aliasesUpsellsEnabled, s.Upsells.Enabled)
	s.AddOns.Enabled = boolAlias(raw, aliasesAddOnsEnabled, s.AddOns.Enabled)

	s.DiscountBar.Enabled = boolAlias(raw, aliasesDiscountEnabled, s.DiscountBar.Enabled)
	if code, ok := stringAlias(raw, aliasesDiscountCode); ok {
		s.DiscountBar.Code = code
	}

	if text, ok := stringAlias(raw, aliasesAnnouncement); ok {
		s.AnnouncementText = text
	}
	if cur, ok := stringAlias(raw, aliasesCurrency); ok && len(cur) == 3 {
		s.Currency = strings.ToUpper(cur)
	}

	return s
}

// boolAlias reports true when any recognized alias carries a truthy value.
// When no alias is present at all, def is returned unchanged. A value of an
// unrecognized type (null, array, object) is invalid, not an explicit false,
// so it does not count as present either.
func boolAlias(raw map[string]any, aliases []string, def bool) bool {
	present := false
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch v.(type) {
		case bool, float64, int, string:
		default:
			continue
		}
		present = true
		if truthy(v) {
			return true
		}
	}
	if !present {
		return def
	}
	return false
}

func stringAlias(raw map[string]any, aliases []string) (string, bool) {
	for _, key := range aliases {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}

func intAlias(raw map[string]any, aliases []string) (int64, bool) {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(math.Round(n)), true
		case int:
			return int64(n), true
		case int64:
			return n, true
		case string:
			if parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

// truthy applies the provider's loose boolean coercion: real booleans,
// nonzero numbers, and the usual string spellings all count.
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "on", "enabled":
			return true
		}
	}
	return false
}

// NormalizeProducts maps raw offer entries into Products, sorted by display
// order. Price may arrive either as integer minor units or as a decimal
// major-unit amount depending on the document generation.
func NormalizeProducts(raw []map[string]any) []Product {
	products := make([]Product, 0, len(raw))
	for _, entry := range raw {
		id, _ := stringAlias(entry, []string{"productId", "product_id", "id"})
		if id == "" {
			continue
		}
		title, _ := stringAlias(entry, []string{"title", "name"})
		p := Product{
			ProductID: id,
			Title:     title,
		}
		if cents, ok := intAlias(entry, []string{"priceMinorUnits", "price_minor_units", "price_cents"}); ok {
			p.PriceMinorUnits = cents
		} else if dec, ok := floatAlias(entry, []string{"price"}); ok {
			p.PriceMinorUnits = int64(math.Round(dec * 100))
		}
		if img, ok := stringAlias(entry, []string{"imageUrl", "image_url", "image"}); ok {
			p.ImageURL = img
		}
		if desc, ok := stringAlias(entry, []string{"description"}); ok {
			p.Description = desc
		}
		p.DefaultSelected = boolAlias(entry, []string{"defaultSelected", "default_selected", "preselected"}, false)
		if order, ok := intAlias(entry, []string{"displayOrder", "display_order", "sort_order"}); ok {
			p.DisplayOrder = int(order)
		}
		products = append(products, p)
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].DisplayOrder < products[j].DisplayOrder
	})
	return products
}

func floatAlias(raw map[string]any, aliases []string) (float64, bool) {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

// SeedAddOnSelection builds the initial selected-add-on set from the
// DefaultSelected flags.
func SeedAddOnSelection(addOns []Product) map[string]bool {
	selected := make(map[string]bool)
	for _, p := range addOns {
		if p.DefaultSelected {
			selected[p.ProductID] = true
		}
	}
	return selected
}
