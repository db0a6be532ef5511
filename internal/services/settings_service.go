// Package services implements the provider-side business logic.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/niaga-platform/service-cartdrawer/internal/events"
	"github.com/niaga-platform/service-cartdrawer/internal/models"
	"github.com/niaga-platform/service-cartdrawer/internal/repository"
)

// ErrShopNotFound is returned when a shop has no settings document.
var ErrShopNotFound = errors.New("no settings for shop")

// SettingsBundle is the full widget configuration served to the storefront:
// the raw settings document plus the offer lists, in the exact shape the
// widget's configuration loader consumes as its first tier.
type SettingsBundle struct {
	Settings json.RawMessage        `json:"settings"`
	Upsells  []models.UpsellProduct `json:"upsells"`
	AddOns   []models.AddOnProduct  `json:"addOns"`
}

// BundleCache is the read-cache surface the settings service needs. Keeping
// it narrow lets the cache backend vary; redisBundleCache is the production
// implementation.
type BundleCache interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// redisBundleCache backs BundleCache with Redis. Cache failures are logged
// and treated as misses.
type redisBundleCache struct {
	client *redis.Client
	logger *zap.Logger
}

func (c *redisBundleCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("failed to read settings cache", zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

func (c *redisBundleCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("failed to write settings cache", zap.Error(err))
	}
}

func (c *redisBundleCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("failed to invalidate settings cache", zap.Error(err))
	}
}

// SettingsService serves and updates widget settings bundles with a
// Redis-backed read cache.
type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	offerRepo    *repository.OfferRepository
	publisher    *events.Publisher
	cache        BundleCache
	ttl          time.Duration
	logger       *zap.Logger
}

// SettingsServiceConfig holds SettingsService construction parameters.
type SettingsServiceConfig struct {
	// Redis is optional; nil disables caching entirely.
	Redis *redis.Client
	// Cache overrides the Redis-backed cache when set.
	Cache BundleCache
	// CacheTTL defaults to 5 minutes.
	CacheTTL time.Duration
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(
	settingsRepo *repository.SettingsRepository,
	offerRepo *repository.OfferRepository,
	publisher *events.Publisher,
	cfg *SettingsServiceConfig,
	logger *zap.Logger,
) *SettingsService {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	cache := cfg.Cache
	if cache == nil && cfg.Redis != nil {
		cache = &redisBundleCache{client: cfg.Redis, logger: logger}
	}
	return &SettingsService{
		settingsRepo: settingsRepo,
		offerRepo:    offerRepo,
		publisher:    publisher,
		cache:        cache,
		ttl:          ttl,
		logger:       logger,
	}
}

func (s *SettingsService) cacheKey(shopDomain string) string {
	return fmt.Sprintf("cartdrawer:settings:%s", shopDomain)
}

// GetBundle returns the widget configuration bundle for a shop, from cache
// when possible.
func (s *SettingsService) GetBundle(ctx context.Context, shopDomain string) (*SettingsBundle, error) {
	if cached := s.getCached(ctx, shopDomain); cached != nil {
		return cached, nil
	}

	settings, err := s.settingsRepo.GetByShop(ctx, shopDomain)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	upsells, err := s.offerRepo.ListUpsells(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to load upsells: %w", err)
	}
	addOns, err := s.offerRepo.ListAddOns(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to load add-ons: %w", err)
	}

	bundle := &SettingsBundle{
		Settings: json.RawMessage(settings.Payload),
		Upsells:  upsells,
		AddOns:   addOns,
	}
	s.setCached(ctx, shopDomain, bundle)
	return bundle, nil
}

// UpdateSettings upserts the raw settings document, invalidates the cache,
// and announces the change.
func (s *SettingsService) UpdateSettings(ctx context.Context, shopDomain string, payload json.RawMessage) error {
	record := &models.ShopSettings{
		ShopDomain: shopDomain,
		Payload:    datatypes.JSON(payload),
	}
	if err := s.settingsRepo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}

	s.InvalidateCache(ctx, shopDomain)
	if s.publisher != nil {
		s.publisher.PublishSettingsUpdated(&events.SettingsUpdatedEvent{
			ShopDomain: shopDomain,
			UpdatedAt:  time.Now().UTC(),
		})
	}
	return nil
}

// ReplaceOffers swaps the shop's upsell and add-on lists, invalidates the
// cache, and announces the change so other instances drop theirs too.
func (s *SettingsService) ReplaceOffers(ctx context.Context, shopDomain string, upsells []models.UpsellProduct, addOns []models.AddOnProduct) error {
	if err := s.offerRepo.ReplaceUpsells(ctx, shopDomain, upsells); err != nil {
		return fmt.Errorf("failed to store upsells: %w", err)
	}
	if err := s.offerRepo.ReplaceAddOns(ctx, shopDomain, addOns); err != nil {
		return fmt.Errorf("failed to store add-ons: %w", err)
	}

	s.InvalidateCache(ctx, shopDomain)
	if s.publisher != nil {
		s.publisher.PublishSettingsUpdated(&events.SettingsUpdatedEvent{
			ShopDomain: shopDomain,
			UpdatedAt:  time.Now().UTC(),
		})
	}
	return nil
}

// InvalidateCache drops the cached bundle for a shop.
func (s *SettingsService) InvalidateCache(ctx context.Context, shopDomain string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, s.cacheKey(shopDomain))
}

// HandleSettingsUpdated implements events.SettingsHandler: an external
// writer (the admin app) changed the document, so the cache entry is stale.
func (s *SettingsService) HandleSettingsUpdated(event *events.SettingsUpdatedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.InvalidateCache(ctx, event.ShopDomain)
	return nil
}

func (s *SettingsService) getCached(ctx context.Context, shopDomain string) *SettingsBundle {
	if s.cache == nil {
		return nil
	}
	data, ok := s.cache.Get(ctx, s.cacheKey(shopDomain))
	if !ok {
		return nil
	}
	var bundle SettingsBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		s.logger.Warn("failed to decode cached settings", zap.Error(err))
		return nil
	}
	s.logger.Debug("settings cache hit", zap.String("shop", shopDomain))
	return &bundle
}

func (s *SettingsService) setCached(ctx context.Context, shopDomain string, bundle *SettingsBundle) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		s.logger.Warn("failed to encode settings for cache", zap.Error(err))
		return
	}
	s.cache.Set(ctx, s.cacheKey(shopDomain), data, s.ttl)
}
