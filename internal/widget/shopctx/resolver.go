// Package shopctx resolves the active shop domain for the current page.
// Every other part of the engine is gated on a successful resolution:
// an unresolved context disables the widget entirely.
package shopctx

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-cartdrawer/internal/widget/storage"
)

const (
	// StorageKey is the local-storage slot holding the last resolved domain.
	StorageKey = "cartdrawer:shop_domain"

	// StorefrontSuffix identifies platform-hosted storefront domains.
	StorefrontSuffix = ".myshopify.com"

	// placeholderDomain is the demo value some themes ship with. A cached
	// copy of it must never be treated as a real shop.
	placeholderDomain = "demo-shop.myshopify.com"
)

// ShopContext identifies the shop the widget is running on. Immutable once
// resolved for the session.
type ShopContext struct {
	ShopDomain string
}

// Resolver determines the shop domain from the page URL, a host-provided
// global, persisted storage, or the page hostname, in that order.
type Resolver struct {
	pageURL    *url.URL
	hostGlobal func() string
	store      storage.KV
	logger     *zap.Logger

	pollAttempts int
	pollInterval time.Duration
}

// Config holds the inputs the resolver reads from the host page.
type Config struct {
	// PageURL is the full URL of the current page.
	PageURL *url.URL
	// HostGlobal reads the injected "current shop" global. It may return ""
	// until the host script has run; the resolver polls it within a bounded
	// window.
	HostGlobal func() string
	// Store is the persistent storage surface.
	Store storage.KV
	// PollAttempts and PollInterval bound the wait for a late-arriving host
	// global. Zero values use the defaults (50 attempts, 100ms apart).
	PollAttempts int
	PollInterval time.Duration

	Logger *zap.Logger
}

// NewResolver creates a Resolver from the host page inputs.
func NewResolver(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := cfg.PollAttempts
	if attempts <= 0 {
		attempts = 50
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	store := cfg.Store
	if store == nil {
		store = storage.NewMemory()
	}
	return &Resolver{
		pageURL:      cfg.PageURL,
		hostGlobal:   cfg.HostGlobal,
		store:        store,
		logger:       logger,
		pollAttempts: attempts,
		pollInterval: interval,
	}
}

// Resolve returns the shop context, or nil when no source yields a usable
// domain within the bounded window. It never returns an error: failure to
// resolve means the engine must stay disabled.
func (r *Resolver) Resolve(ctx context.Context) *ShopContext {
	// 1. Explicit ?shop= query parameter.
	if r.pageURL != nil {
		if shop := strings.TrimSpace(r.pageURL.Query().Get("shop")); shop != "" {
			r.persist(shop)
			r.logger.Debug("shop resolved from query parameter", zap.String("shop", shop))
			return &ShopContext{ShopDomain: shop}
		}
	}

	// 2. Host-provided global, waiting out late script execution.
	if shop := r.waitForHostGlobal(ctx); shop != "" {
		r.persist(shop)
		r.logger.Debug("shop resolved from host global", zap.String("shop", shop))
		return &ShopContext{ShopDomain: shop}
	}

	// 3. Previously persisted value. The shipped demo placeholder is not a
	// real shop and must not resurrect a dead resolution.
	if cached, ok := r.store.Get(StorageKey); ok {
		cached = strings.TrimSpace(cached)
		if cached != "" && cached != placeholderDomain {
			r.logger.Debug("shop resolved from storage", zap.String("shop", cached))
			return &ShopContext{ShopDomain: cached}
		}
	}

	// 4. The page hostname itself, for platform-hosted storefronts.
	if r.pageURL != nil {
		host := strings.TrimSpace(r.pageURL.Hostname())
		if strings.HasSuffix(host, StorefrontSuffix) {
			r.persist(host)
			r.logger.Debug("shop resolved from hostname", zap.String("shop", host))
			return &ShopContext{ShopDomain: host}
		}
	}

	r.logger.Warn("no shop domain could be resolved, widget disabled")
	return nil
}

// waitForHostGlobal polls the injected global within the bounded window.
func (r *Resolver) waitForHostGlobal(ctx context.Context) string {
	if r.hostGlobal == nil {
		return ""
	}
	for attempt := 0; attempt < r.pollAttempts; attempt++ {
		if shop := strings.TrimSpace(r.hostGlobal()); shop != "" {
			return shop
		}
		if attempt == r.pollAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ""
		case <-time.After(r.pollInterval):
		}
	}
	return ""
}

func (r *Resolver) persist(shop string) {
	r.store.Set(StorageKey, shop)
}
