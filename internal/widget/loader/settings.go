// Package loader fetches and normalizes the merchant's widget configuration.
// Raw payloads from the settings provider have drifted across script
// generations, so everything entering the engine passes through one alias
// table into the canonical Settings model.
package loader

// Settings is the canonical, normalized widget configuration. It is built
// once per load by merging a raw provider payload over Defaults and is never
// mutated in place; a settings change produces a new value.
type Settings struct {
	CartDrawerEnabled bool
	DrawerPosition    string // "left" or "right"
	ThemeColor        string
	StickyButton      StickyButtonSettings
	FreeShipping      FreeShippingSettings
	Upsells           FeatureToggle
	AddOns            FeatureToggle
	DiscountBar       DiscountBarSettings
	AnnouncementText  string
	Currency          string // ISO 4217
}

// StickyButtonSettings configures the floating cart button.
type StickyButtonSettings struct {
	Enabled  bool
	Text     string
	Position string // one of the four page corners
}

// FreeShippingSettings configures the free-shipping progress bar.
type FreeShippingSettings struct {
	Enabled             bool
	ThresholdMinorUnits int64
}

// FeatureToggle is a bare enabled flag for a drawer section.
type FeatureToggle struct {
	Enabled bool
}

// DiscountBarSettings configures the discount code banner.
type DiscountBarSettings struct {
	Enabled bool
	Code    string
}

// Sticky button corner positions.
const (
	PositionBottomRight = "bottom-right"
	PositionBottomLeft  = "bottom-left"
	PositionTopRight    = "top-right"
	PositionTopLeft     = "top-left"
)

// Defaults returns the hard-coded fallback configuration. This is the final
// tier of the load chain and the base every raw payload is merged over.
func Defaults() Settings {
	return Settings{
		CartDrawerEnabled: true,
		DrawerPosition:    "right",
		ThemeColor:        "#000000",
		StickyButton: StickyButtonSettings{
			Enabled:  true,
			Text:     "Cart",
			Position: PositionBottomRight,
		},
		FreeShipping: FreeShippingSettings{
			Enabled:             false,
			ThresholdMinorUnits: 0,
		},
		Upsells:          FeatureToggle{Enabled: false},
		AddOns:           FeatureToggle{Enabled: false},
		DiscountBar:      DiscountBarSettings{Enabled: false},
		AnnouncementText: "",
		Currency:         "USD",
	}
}

// Product is an upsell or add-on offer attached to the drawer.
type Product struct {
	ProductID       string `json:"productId"`
	Title           string `json:"title"`
	PriceMinorUnits int64  `json:"priceMinorUnits"`
	ImageURL        string `json:"imageUrl,omitempty"`
	Description     string `json:"description,omitempty"`
	DefaultSelected bool   `json:"defaultSelected,omitempty"`
	DisplayOrder    int    `json:"displayOrder"`
}

// Bundle is the full result of a configuration load. SelectedAddOnIDs is the
// initial selection seeded from the add-ons' DefaultSelected flags.
type Bundle struct {
	Settings         Settings
	Upsells          []Product
	AddOns           []Product
	SelectedAddOnIDs map[string]bool
}

// DefaultBundle returns the guaranteed final-tier bundle: default settings
// and empty offer lists.
func DefaultBundle() *Bundle {
	return &Bundle{
		Settings:         Defaults(),
		Upsells:          nil,
		AddOns:           nil,
		SelectedAddOnIDs: map[string]bool{},
	}
}
