package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultTierTimeout bounds each fallback tier so the chain cannot hang.
const DefaultTierTimeout = 1500 * time.Millisecond

// Loader fetches the widget configuration for a shop through a tiered
// fallback chain. Load never fails: every tier error degrades to the next
// tier and the final tier is the hard-coded default bundle.
type Loader struct {
	cdnBaseURL   string
	proxyBaseURL string
	httpClient   *http.Client
	tierTimeout  time.Duration
	logger       *zap.Logger
}

// Config holds Loader construction parameters.
type Config struct {
	// CDNBaseURL serves pre-generated settings documents (tiers 1 and 2).
	CDNBaseURL string
	// ProxyBaseURL is the storefront app-proxy prefix (tier 3).
	ProxyBaseURL string
	// HTTPClient defaults to a plain client; per-tier timeouts are applied
	// via request contexts.
	HTTPClient *http.Client
	// TierTimeout bounds each tier; zero uses DefaultTierTimeout.
	TierTimeout time.Duration

	Logger *zap.Logger
}

// New creates a Loader.
func New(cfg Config) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.TierTimeout
	if timeout <= 0 {
		timeout = DefaultTierTimeout
	}
	return &Loader{
		cdnBaseURL:   cfg.CDNBaseURL,
		proxyBaseURL: cfg.ProxyBaseURL,
		httpClient:   client,
		tierTimeout:  timeout,
		logger:       logger,
	}
}

// bundleDocument is the JSON document served by tier 1.
type bundleDocument struct {
	Settings map[string]any   `json:"settings"`
	Upsells  []map[string]any `json:"upsells"`
	AddOns   []map[string]any `json:"addOns"`
}

// Load resolves the configuration bundle for shop. The returned bundle is
// always non-nil and fully normalized.
func (l *Loader) Load(ctx context.Context, shop string) *Bundle {
	type tier struct {
		name string
		run  func(context.Context, string) (*Bundle, error)
	}
	tiers := []tier{
		{"cdn-json", l.loadJSON},
		{"cdn-script", l.loadScript},
		{"app-proxy", l.loadProxy},
	}

	for _, t := range tiers {
		tierCtx, cancel := context.WithTimeout(ctx, l.tierTimeout)
		bundle, err := t.run(tierCtx, shop)
		cancel()
		if err == nil {
			l.logger.Debug("settings loaded",
				zap.String("tier", t.name),
				zap.String("shop", shop),
			)
			return bundle
		}
		l.logger.Warn("settings tier failed, falling back",
			zap.String("tier", t.name),
			zap.String("shop", shop),
			zap.Error(err),
		)
	}

	l.logger.Warn("all settings tiers failed, using defaults", zap.String("shop", shop))
	return DefaultBundle()
}

// loadJSON fetches the pre-generated JSON document (tier 1).
func (l *Loader) loadJSON(ctx context.Context, shop string) (*Bundle, error) {
	if l.cdnBaseURL == "" {
		return nil, fmt.Errorf("no CDN base URL configured")
	}
	body, err := l.get(ctx, fmt.Sprintf("%s/settings/%s.json", l.cdnBaseURL, url.PathEscape(shop)))
	if err != nil {
		return nil, err
	}
	var doc bundleDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("invalid settings document: %w", err)
	}
	return assemble(&doc), nil
}

// loadScript fetches the script-form document and reads its global slots
// (tier 2).
func (l *Loader) loadScript(ctx context.Context, shop string) (*Bundle, error) {
	if l.cdnBaseURL == "" {
		return nil, fmt.Errorf("no CDN base URL configured")
	}
	body, err := l.get(ctx, fmt.Sprintf("%s/settings/%s.js", l.cdnBaseURL, url.PathEscape(shop)))
	if err != nil {
		return nil, err
	}
	return ParseScriptBundle(string(body))
}

// loadProxy fetches the script form through the storefront app proxy, which
// performs the settings lookup server-side (tier 3).
func (l *Loader) loadProxy(ctx context.Context, shop string) (*Bundle, error) {
	if l.proxyBaseURL == "" {
		return nil, fmt.Errorf("no proxy base URL configured")
	}
	body, err := l.get(ctx, fmt.Sprintf("%s/widget/settings?shop=%s", l.proxyBaseURL, url.QueryEscape(shop)))
	if err != nil {
		return nil, err
	}
	return ParseScriptBundle(string(body))
}

func (l *Loader) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// assemble normalizes a raw document into a Bundle.
func assemble(doc *bundleDocument) *Bundle {
	addOns := NormalizeProducts(doc.AddOns)
	return &Bundle{
		Settings:         Normalize(doc.Settings),
		Upsells:          NormalizeProducts(doc.Upsells),
		AddOns:           addOns,
		SelectedAddOnIDs: SeedAddOnSelection(addOns),
	}
}
