package drawer

import (
	"github.com/niaga-platform/service-cartdrawer/internal/widget/loader"
)

// View is the complete render model for the drawer and sticky button. Every
// state-changing operation produces a fresh View in the same tick; the host
// renderer must never be left showing a previous cart state after an
// operation resolves.
type View struct {
	IsOpen       bool
	ScrollLocked bool

	DrawerPosition string
	ThemeColor     string
	Currency       string
	Announcement   string

	StickyButton StickyButtonView
	DiscountBar  *DiscountBarView

	Lines []LineView
	Empty bool

	TotalMinorUnits int64
	FreeShipping    *FreeShippingProgress

	Upsells []OfferView
	AddOns  []OfferView
}

// StickyButtonView renders the floating cart button.
type StickyButtonView struct {
	Visible   bool
	Text      string
	Position  string
	ItemCount int
}

// DiscountBarView renders the discount code banner.
type DiscountBarView struct {
	Code string
}

// LineView is one rendered cart line.
type LineView struct {
	Key             string
	Title           string
	VariantTitle    string
	PriceMinorUnits int64
	Quantity        int
	ImageURL        string
}

// OfferView is one rendered upsell or add-on tile.
type OfferView struct {
	Product  loader.Product
	Selected bool
}

// Renderer is the host-owned rendering surface. Implementations patch the
// page DOM; tests record the views they receive.
type Renderer interface {
	// Render replaces the rendered widget state with view.
	Render(view View)
	// Notify shows a transient, non-blocking message to the shopper.
	// Level is "success" or "error".
	Notify(level, message string)
}

// NopRenderer discards all output. Used when the engine runs headless.
type NopRenderer struct{}

// Render implements Renderer.
func (NopRenderer) Render(View) {}

// Notify implements Renderer.
func (NopRenderer) Notify(string, string) {}
