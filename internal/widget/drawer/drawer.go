// Package drawer owns the cart state and the open/closed lifecycle of the
// slide-out panel. The server snapshot is the single source of truth:
// mutations never patch local state, they POST the change and re-fetch.
package drawer

import (
	"context"
	"net/url"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-cartdrawer/internal/widget/analytics"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/loader"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/storefront"
)

// CartAPI is the slice of the storefront client the drawer needs.
type CartAPI interface {
	GetCart(ctx context.Context) (*storefront.Cart, error)
	AddToCart(ctx context.Context, form url.Values) error
	ChangeLine(ctx context.Context, lineKey string, quantity int) error
}

// Drawer is the state machine and renderer driver. All state transitions
// hold the mutex; network calls run outside it.
type Drawer struct {
	client   CartAPI
	renderer Renderer
	emitter  *analytics.Emitter
	logger   *zap.Logger

	settings loader.Settings
	upsells  []loader.Product
	addOns   []loader.Product

	mu        sync.Mutex
	cart      storefront.Cart
	selection Selection
	isOpen    bool

	// Fetch sequencing: responses are applied last-resolved-wins so a slow
	// earlier fetch can never clobber a fresher snapshot.
	nextSeq    uint64
	appliedSeq uint64
}

// Config holds Drawer construction parameters.
type Config struct {
	Client   CartAPI
	Renderer Renderer
	Emitter  *analytics.Emitter

	Settings         loader.Settings
	Upsells          []loader.Product
	AddOns           []loader.Product
	SelectedAddOnIDs map[string]bool

	// InitialCart is the snapshot fetched during startup, so the first paint
	// does not wait for another round trip.
	InitialCart *storefront.Cart

	Logger *zap.Logger
}

// New creates a Drawer in the closed state and renders the first view.
func New(cfg Config) *Drawer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = NopRenderer{}
	}

	d := &Drawer{
		client:    cfg.Client,
		renderer:  renderer,
		emitter:   cfg.Emitter,
		logger:    logger,
		settings:  cfg.Settings,
		upsells:   sortedOffers(cfg.Upsells),
		addOns:    sortedOffers(cfg.AddOns),
		selection: NewSelection(cfg.SelectedAddOnIDs),
	}
	if cfg.InitialCart != nil {
		d.cart = *cfg.InitialCart
	}
	d.mu.Lock()
	d.renderLocked()
	d.mu.Unlock()
	return d
}

// Open reveals the drawer, locks page scroll, emits the opened event, and
// re-fetches the cart so the contents are fresh. Opening an already-open
// drawer is a no-op with no duplicate side effects.
func (d *Drawer) Open(ctx context.Context) {
	d.mu.Lock()
	if d.isOpen {
		d.mu.Unlock()
		return
	}
	d.isOpen = true
	d.renderLocked()
	total, count := d.cart.TotalPrice, d.cart.ItemCount
	d.mu.Unlock()

	d.emit(analytics.EventDrawerOpened, total, count, nil)
	d.Refresh(ctx)
}

// Close hides the drawer and restores page scroll. Idempotent.
func (d *Drawer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.isOpen {
		return
	}
	d.isOpen = false
	d.renderLocked()
}

// Toggle dispatches to Open or Close.
func (d *Drawer) Toggle(ctx context.Context) {
	d.mu.Lock()
	open := d.isOpen
	d.mu.Unlock()
	if open {
		d.Close()
	} else {
		d.Open(ctx)
	}
}

// IsOpen reports the drawer state.
func (d *Drawer) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isOpen
}

// HandleKey maps Escape to Close while the drawer is open.
func (d *Drawer) HandleKey(key string) {
	if key == "Escape" {
		d.Close()
	}
}

// Refresh fetches the cart snapshot and applies it last-resolved-wins. A
// failed fetch keeps the last-known-good state.
func (d *Drawer) Refresh(ctx context.Context) {
	d.mu.Lock()
	d.nextSeq++
	seq := d.nextSeq
	d.mu.Unlock()

	cart, err := d.client.GetCart(ctx)
	if err != nil {
		d.logger.Warn("cart fetch failed, keeping previous state", zap.Error(err))
		return
	}
	d.applySnapshot(seq, cart)
}

func (d *Drawer) applySnapshot(seq uint64, cart *storefront.Cart) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq <= d.appliedSeq {
		d.logger.Debug("discarding superseded cart snapshot",
			zap.Uint64("seq", seq),
			zap.Uint64("applied", d.appliedSeq),
		)
		return
	}
	d.appliedSeq = seq
	d.cart = *cart
	d.renderLocked()
}

// UpdateQuantity sets a line's quantity. The new quantity is clamped to
// zero, POSTed to the mutation endpoint, and on success the authoritative
// snapshot is re-fetched as the final step. Failure leaves prior state
// untouched and surfaces a transient notification.
func (d *Drawer) UpdateQuantity(ctx context.Context, lineKey string, quantity int) {
	if quantity < 0 {
		quantity = 0
	}
	event := analytics.EventQuantityUpdated
	if quantity == 0 {
		event = analytics.EventItemRemoved
	}

	if err := d.client.ChangeLine(ctx, lineKey, quantity); err != nil {
		d.logger.Warn("cart mutation failed",
			zap.String("line", lineKey),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		d.renderer.Notify("error", "Could not update your cart. Please try again.")
		return
	}

	d.mu.Lock()
	total, count := d.cart.TotalPrice, d.cart.ItemCount
	d.mu.Unlock()
	d.emit(event, total, count, map[string]any{"lineKey": lineKey, "quantity": quantity})

	d.Refresh(ctx)
}

// RemoveItem removes a line, implemented as an update to quantity zero.
func (d *Drawer) RemoveItem(ctx context.Context, lineKey string) {
	d.UpdateQuantity(ctx, lineKey, 0)
}

// AddToCart posts an intercepted product form. On success the cart is
// re-fetched, the drawer opens, and a success notification shows. The error
// return lets the caller fall back to native submission; no notification is
// shown on failure.
func (d *Drawer) AddToCart(ctx context.Context, form url.Values) error {
	if err := d.client.AddToCart(ctx, form); err != nil {
		return err
	}

	d.mu.Lock()
	total, count := d.cart.TotalPrice, d.cart.ItemCount
	wasOpen := d.isOpen
	d.mu.Unlock()
	d.emit(analytics.EventItemAdded, total, count, nil)

	d.renderer.Notify("success", "Added to your cart.")
	if wasOpen {
		d.Refresh(ctx)
	} else {
		d.Open(ctx) // Open performs the refresh.
	}
	return nil
}

// ToggleUpsell flips an upsell selection and re-renders.
func (d *Drawer) ToggleUpsell(productID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection.UpsellIDs[productID] = !d.selection.UpsellIDs[productID]
	d.renderLocked()
}

// ToggleAddOn flips an add-on selection and re-renders.
func (d *Drawer) ToggleAddOn(productID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection.AddOnIDs[productID] = !d.selection.AddOnIDs[productID]
	d.renderLocked()
}

// ApplySettings swaps in a new settings value and re-renders. The previous
// value is never mutated.
func (d *Drawer) ApplySettings(settings loader.Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings = settings
	d.renderLocked()
}

// View builds the current render model.
func (d *Drawer) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *Drawer) renderLocked() {
	d.renderer.Render(d.viewLocked())
}

func (d *Drawer) viewLocked() View {
	total := EnhancedTotal(&d.cart, d.selection, d.upsells, d.addOns)

	view := View{
		IsOpen:          d.isOpen,
		ScrollLocked:    d.isOpen,
		DrawerPosition:  d.settings.DrawerPosition,
		ThemeColor:      d.settings.ThemeColor,
		Currency:        currencyOf(&d.cart, d.settings),
		Announcement:    d.settings.AnnouncementText,
		Empty:           len(d.cart.Items) == 0,
		TotalMinorUnits: total,
	}

	view.StickyButton = StickyButtonView{
		Visible:   d.settings.StickyButton.Enabled,
		Text:      d.settings.StickyButton.Text,
		Position:  d.settings.StickyButton.Position,
		ItemCount: d.cart.ItemCount,
	}

	if d.settings.DiscountBar.Enabled && d.settings.DiscountBar.Code != "" {
		view.DiscountBar = &DiscountBarView{Code: d.settings.DiscountBar.Code}
	}

	for _, item := range d.cart.Items {
		view.Lines = append(view.Lines, LineView{
			Key:             item.Key,
			Title:           item.Title,
			VariantTitle:    item.VariantTitle,
			PriceMinorUnits: item.Price,
			Quantity:        item.Quantity,
			ImageURL:        item.Image,
		})
	}

	if d.settings.FreeShipping.Enabled {
		progress := ComputeFreeShipping(d.settings.FreeShipping.ThresholdMinorUnits, total)
		view.FreeShipping = &progress
	}

	if d.settings.Upsells.Enabled && len(d.upsells) > 0 {
		for _, p := range d.upsells {
			view.Upsells = append(view.Upsells, OfferView{Product: p, Selected: d.selection.UpsellIDs[p.ProductID]})
		}
	}
	if d.settings.AddOns.Enabled && len(d.addOns) > 0 {
		for _, p := range d.addOns {
			view.AddOns = append(view.AddOns, OfferView{Product: p, Selected: d.selection.AddOnIDs[p.ProductID]})
		}
	}

	return view
}

func (d *Drawer) emit(event string, total int64, count int, extra map[string]any) {
	if d.emitter != nil {
		d.emitter.Emit(event, total, count, extra)
	}
}

func currencyOf(cart *storefront.Cart, settings loader.Settings) string {
	if cart.Currency != "" {
		return cart.Currency
	}
	return settings.Currency
}

func sortedOffers(products []loader.Product) []loader.Product {
	out := make([]loader.Product, len(products))
	copy(out, products)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}
