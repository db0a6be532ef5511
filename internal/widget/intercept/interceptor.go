// Package intercept captures the theme's native cart interactions and
// redirects them into the engine. Listeners run at capture phase so they
// fire before any bubble-phase handler the theme installed itself.
package intercept

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-cartdrawer/internal/widget/dom"
)

// maxAncestorDepth bounds the upward walk when matching a click against the
// native-cart heuristics.
const maxAncestorDepth = 6

// Handlers receive the interactions the interceptor takes over.
type Handlers struct {
	// OnCartOpenRequested fires when a native cart affordance was clicked.
	OnCartOpenRequested func()
	// OnAddToCartRequested fires with the intercepted product form.
	OnAddToCartRequested func(form *dom.Element)
}

// Interceptor installs capture-phase click and submit listeners on the host
// document. Install is idempotent: a second call never double-registers.
type Interceptor struct {
	doc        *dom.Document
	engineRoot *dom.Element
	handlers   Handlers
	logger     *zap.Logger

	mu        sync.Mutex
	installed bool
}

// Config holds Interceptor construction parameters.
type Config struct {
	Document *dom.Document
	// EngineRoot is the engine's own rendered subtree. Anything inside it is
	// excluded from interception; without this the drawer's own controls
	// would recursively reopen the drawer they live in.
	EngineRoot *dom.Element
	Handlers   Handlers
	Logger     *zap.Logger
}

// New creates an Interceptor.
func New(cfg Config) *Interceptor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interceptor{
		doc:        cfg.Document,
		engineRoot: cfg.EngineRoot,
		handlers:   cfg.Handlers,
		logger:     logger,
	}
}

// Install registers the capture-phase listeners. Calling it again is a no-op.
func (i *Interceptor) Install() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.installed {
		i.logger.Debug("interceptor already installed, skipping")
		return
	}
	i.installed = true

	i.doc.Root.AddEventListener(dom.EventClick, true, i.handleClick)
	i.doc.Root.AddEventListener(dom.EventSubmit, true, i.handleSubmit)
	i.logger.Debug("interceptor installed")
}

// Installed reports whether the listeners are registered.
func (i *Interceptor) Installed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.installed
}

func (i *Interceptor) handleClick(ev *dom.Event) {
	// Exclude wins: the engine's own controls are never intercepted, even
	// when they also match a native-cart heuristic.
	if i.insideEngine(ev.Target) {
		return
	}

	match := ev.Target.Closest(maxAncestorDepth, isNativeCartAffordance)
	if match == nil {
		return
	}

	ev.PreventDefault()
	ev.StopPropagation()
	ev.StopImmediatePropagation()

	i.logger.Debug("native cart interaction intercepted",
		zap.String("tag", match.Tag),
		zap.String("id", match.ID),
	)
	if i.handlers.OnCartOpenRequested != nil {
		i.handlers.OnCartOpenRequested()
	}
}

func (i *Interceptor) handleSubmit(ev *dom.Event) {
	form := ev.Target
	if form.Tag != "form" || !isAddToCartForm(form) {
		return
	}
	// Forms the engine submits itself are marked and pass through natively.
	if form.Attr("data-cart-drawer-own") != "" || i.insideEngine(form) {
		return
	}

	ev.PreventDefault()
	i.logger.Debug("add-to-cart form intercepted", zap.String("action", form.Attr("action")))
	if i.handlers.OnAddToCartRequested != nil {
		i.handlers.OnAddToCartRequested(form)
	}
}

func (i *Interceptor) insideEngine(el *dom.Element) bool {
	return i.engineRoot != nil && el.IsDescendantOf(i.engineRoot)
}

// isNativeCartAffordance applies the selector heuristics identifying the
// theme's own cart UI: links to the cart page, cart data attributes,
// cart-flavored class/id fragments, and ARIA controls referencing a cart
// region. Heuristic by necessity; themes carry arbitrary markup.
func isNativeCartAffordance(el *dom.Element) bool {
	if el.Tag == "a" {
		href := el.Attr("href")
		if href == "/cart" || strings.HasPrefix(href, "/cart?") || strings.HasSuffix(href, "/cart") {
			return true
		}
	}
	if el.Attr("data-cart-toggle") != "" || el.Attr("data-drawer-toggle") != "" || el.Attr("data-cart-url") != "" {
		return true
	}
	if idMatchesCart(el.ID) {
		return true
	}
	for _, class := range el.Classes {
		if idMatchesCart(class) {
			return true
		}
	}
	if controls := el.Attr("aria-controls"); controls != "" && idMatchesCart(controls) {
		return true
	}
	return false
}

// idMatchesCart reports whether an id/class token names a cart affordance.
// Bare substring matching on "cart" would swallow unrelated elements
// ("discard-button"), so the fragment list is deliberately specific.
func idMatchesCart(token string) bool {
	lower := strings.ToLower(token)
	for _, fragment := range []string{
		"cart-icon", "cart-link", "cart-toggle", "cart-button",
		"mini-cart", "minicart", "cart-drawer", "cartdrawer",
		"header-cart", "site-cart",
	} {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return lower == "cart"
}

// isAddToCartForm reports whether the form posts to the line-item-add
// endpoint.
func isAddToCartForm(form *dom.Element) bool {
	action := form.Attr("action")
	return strings.HasSuffix(action, "/cart/add") || strings.Contains(action, "/cart/add.js") ||
		strings.Contains(action, "/cart/add?")
}
