// Package widget assembles the cart drawer engine: shop resolution,
// configuration loading, native interaction interception, and the drawer
// state machine. One Widget instance is constructed per page and exposes the
// narrow method set host bindings call; there is no package-level singleton.
package widget

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-cartdrawer/internal/widget/analytics"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/dom"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/drawer"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/intercept"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/loader"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/shopctx"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/storage"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/storefront"
)

// EngineRootID marks the engine's own rendered subtree in the host page.
const EngineRootID = "cart-drawer-root"

// Config wires the engine to its host page and remote collaborators.
type Config struct {
	// Document is the host page tree events flow through.
	Document *dom.Document
	// PageURL is the current page URL (shop resolution input).
	PageURL *url.URL
	// HostGlobal reads the injected "current shop" global, if any.
	HostGlobal func() string

	// LocalStore and SessionStore map to the page's persistent and
	// per-session storage.
	LocalStore   storage.KV
	SessionStore storage.KV

	// Renderer receives every view update. Nil renders into the void.
	Renderer drawer.Renderer

	// CDNBaseURL and ProxyBaseURL feed the configuration loader's tiers.
	CDNBaseURL   string
	ProxyBaseURL string
	// StorefrontBaseURL overrides the cart endpoint origin; empty derives
	// "https://<shop>" from the resolved context.
	StorefrontBaseURL string
	// AnalyticsEndpoint is the event sink; empty disables analytics.
	AnalyticsEndpoint string

	// HTTPClient is shared by all remote calls when set.
	HTTPClient *http.Client

	// ResolvePollAttempts and ResolvePollInterval tune the bounded wait for
	// a late host global; zero values use the resolver defaults.
	ResolvePollAttempts int
	ResolvePollInterval time.Duration

	Logger *zap.Logger
}

// Widget is the engine instance. Construct with New, then Start once.
type Widget struct {
	cfg    Config
	logger *zap.Logger

	mu         sync.Mutex
	started    bool
	shop       *shopctx.ShopContext
	drawer     *drawer.Drawer
	intercept  *intercept.Interceptor
	engineRoot *dom.Element
	runCtx     context.Context
}

// New creates a Widget. Nothing touches the page or the network until Start.
func New(cfg Config) *Widget {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Document == nil {
		cfg.Document = dom.NewDocument()
	}
	if cfg.LocalStore == nil {
		cfg.LocalStore = storage.NewMemory()
	}
	if cfg.SessionStore == nil {
		cfg.SessionStore = storage.NewMemory()
	}
	return &Widget{cfg: cfg, logger: logger}
}

// Start resolves the shop context, loads settings and the cart concurrently,
// renders the first view once both are available, and installs the
// interceptor. An unresolved context or a disabled drawer leaves the engine
// inert: nothing installed, nothing fetched further, no error. Start is
// idempotent.
func (w *Widget) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	resolver := shopctx.NewResolver(shopctx.Config{
		PageURL:      w.cfg.PageURL,
		HostGlobal:   w.cfg.HostGlobal,
		Store:        w.cfg.LocalStore,
		PollAttempts: w.cfg.ResolvePollAttempts,
		PollInterval: w.cfg.ResolvePollInterval,
		Logger:       w.logger,
	})
	shop := resolver.Resolve(ctx)
	if shop == nil {
		// Fail closed: no shop, no widget.
		return nil
	}

	client := storefront.NewClient(storefront.ClientConfig{
		BaseURL:    w.storefrontBaseURL(shop),
		HTTPClient: w.cfg.HTTPClient,
		Logger:     w.logger,
	})
	cfgLoader := loader.New(loader.Config{
		CDNBaseURL:   w.cfg.CDNBaseURL,
		ProxyBaseURL: w.cfg.ProxyBaseURL,
		HTTPClient:   w.cfg.HTTPClient,
		Logger:       w.logger,
	})

	// Settings and the initial cart are independent; fetch them in parallel
	// and paint only when both are in.
	var (
		wg     sync.WaitGroup
		bundle *loader.Bundle
		cart   *storefront.Cart
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		bundle = cfgLoader.Load(ctx, shop.ShopDomain)
	}()
	go func() {
		defer wg.Done()
		fetched, err := client.GetCart(ctx)
		if err != nil {
			w.logger.Warn("initial cart fetch failed, starting empty", zap.Error(err))
			fetched = &storefront.Cart{}
		}
		cart = fetched
	}()
	wg.Wait()

	if !bundle.Settings.CartDrawerEnabled {
		w.logger.Info("cart drawer disabled for shop", zap.String("shop", shop.ShopDomain))
		return nil
	}

	emitter := analytics.New(analytics.Config{
		Endpoint:     w.cfg.AnalyticsEndpoint,
		ShopDomain:   shop.ShopDomain,
		SessionStore: w.cfg.SessionStore,
		HTTPClient:   w.cfg.HTTPClient,
		Logger:       w.logger,
	})

	engineRoot := dom.NewElement("div").WithID(EngineRootID).WithAttr("data-cart-drawer-root", "true")
	w.cfg.Document.Root.AppendChild(engineRoot)

	d := drawer.New(drawer.Config{
		Client:           client,
		Renderer:         w.cfg.Renderer,
		Emitter:          emitter,
		Settings:         bundle.Settings,
		Upsells:          bundle.Upsells,
		AddOns:           bundle.AddOns,
		SelectedAddOnIDs: bundle.SelectedAddOnIDs,
		InitialCart:      cart,
		Logger:           w.logger,
	})

	w.mu.Lock()
	w.shop = shop
	w.drawer = d
	w.engineRoot = engineRoot
	w.runCtx = ctx
	w.mu.Unlock()

	interceptor := intercept.New(intercept.Config{
		Document:   w.cfg.Document,
		EngineRoot: engineRoot,
		Handlers: intercept.Handlers{
			OnCartOpenRequested: func() { d.Open(w.runContext()) },
			OnAddToCartRequested: func(form *dom.Element) {
				w.handleInterceptedForm(form)
			},
		},
		Logger: w.logger,
	})
	interceptor.Install()

	w.cfg.Document.Root.AddEventListener(dom.EventKeyDown, false, func(ev *dom.Event) {
		d.HandleKey(ev.Key)
	})

	w.mu.Lock()
	w.intercept = interceptor
	w.mu.Unlock()

	w.logger.Info("cart drawer started",
		zap.String("shop", shop.ShopDomain),
		zap.Int("upsells", len(bundle.Upsells)),
		zap.Int("add_ons", len(bundle.AddOns)),
	)
	return nil
}

// handleInterceptedForm serializes the captured form and performs the add
// through the cart API. On failure the form is resubmitted natively, exactly
// once, so the shopper is never stuck behind the interception.
func (w *Widget) handleInterceptedForm(form *dom.Element) {
	values := url.Values(form.FormValues())
	if err := w.drawer.AddToCart(w.runContext(), values); err != nil {
		w.logger.Warn("intercepted add-to-cart failed, falling back to native submit", zap.Error(err))
		w.cfg.Document.SubmitNative(form)
	}
}

// Enabled reports whether Start produced a live engine.
func (w *Widget) Enabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drawer != nil
}

// ShopDomain returns the resolved shop, or "" when disabled.
func (w *Widget) ShopDomain() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.shop == nil {
		return ""
	}
	return w.shop.ShopDomain
}

// EngineRoot returns the engine's rendered subtree for hosts to mount
// controls under; elements there are excluded from interception.
func (w *Widget) EngineRoot() *dom.Element {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engineRoot
}

// Open opens the drawer.
func (w *Widget) Open() {
	if d := w.drawerRef(); d != nil {
		d.Open(w.runContext())
	}
}

// Close closes the drawer.
func (w *Widget) Close() {
	if d := w.drawerRef(); d != nil {
		d.Close()
	}
}

// Toggle toggles the drawer.
func (w *Widget) Toggle() {
	if d := w.drawerRef(); d != nil {
		d.Toggle(w.runContext())
	}
}

// UpdateQuantity changes a cart line's quantity.
func (w *Widget) UpdateQuantity(lineKey string, quantity int) {
	if d := w.drawerRef(); d != nil {
		d.UpdateQuantity(w.runContext(), lineKey, quantity)
	}
}

// RemoveItem removes a cart line.
func (w *Widget) RemoveItem(lineKey string) {
	if d := w.drawerRef(); d != nil {
		d.RemoveItem(w.runContext(), lineKey)
	}
}

// ToggleUpsell flips an upsell selection.
func (w *Widget) ToggleUpsell(productID string) {
	if d := w.drawerRef(); d != nil {
		d.ToggleUpsell(productID)
	}
}

// ToggleAddOn flips an add-on selection.
func (w *Widget) ToggleAddOn(productID string) {
	if d := w.drawerRef(); d != nil {
		d.ToggleAddOn(productID)
	}
}

// Drawer exposes the underlying state machine for hosts that need direct
// access (and for tests).
func (w *Widget) Drawer() *drawer.Drawer {
	return w.drawerRef()
}

func (w *Widget) drawerRef() *drawer.Drawer {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.drawer
}

func (w *Widget) runContext() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.runCtx != nil {
		return w.runCtx
	}
	return context.Background()
}

func (w *Widget) storefrontBaseURL(shop *shopctx.ShopContext) string {
	if w.cfg.StorefrontBaseURL != "" {
		return w.cfg.StorefrontBaseURL
	}
	return "https://" + shop.ShopDomain
}
