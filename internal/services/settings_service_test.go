package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-cartdrawer/internal/events"
	"github.com/niaga-platform/service-cartdrawer/internal/models"
)

// memoryBundleCache is an in-memory BundleCache double.
type memoryBundleCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemoryBundleCache() *memoryBundleCache {
	return &memoryBundleCache{entries: make(map[string][]byte)}
}

func (c *memoryBundleCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *memoryBundleCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *memoryBundleCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deletes = append(c.deletes, key)
}

func cachedService(cache BundleCache) *SettingsService {
	return NewSettingsService(nil, nil, nil, &SettingsServiceConfig{Cache: cache}, zap.NewNop())
}

func seedBundle(t *testing.T, cache *memoryBundleCache, shop string) *SettingsBundle {
	t.Helper()
	bundle := &SettingsBundle{
		Settings: json.RawMessage(`{"themeColor":"#123456"}`),
		Upsells:  []models.UpsellProduct{{ProductID: "u1", Title: "Tote", PriceMinorUnits: 1200}},
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		t.Fatal(err)
	}
	cache.Set(context.Background(), "cartdrawer:settings:"+shop, data, time.Minute)
	return bundle
}

func TestGetBundleServesFromCache(t *testing.T) {
	cache := newMemoryBundleCache()
	seeded := seedBundle(t, cache, "alpha.myshopify.com")
	// Repositories are nil: a cache hit must never reach the database.
	s := cachedService(cache)

	got, err := s.GetBundle(context.Background(), "alpha.myshopify.com")
	if err != nil {
		t.Fatalf("GetBundle: %v", err)
	}
	if string(got.Settings) != string(seeded.Settings) {
		t.Errorf("Settings = %s", got.Settings)
	}
	if len(got.Upsells) != 1 || got.Upsells[0].ProductID != "u1" {
		t.Errorf("Upsells = %+v", got.Upsells)
	}
}

func TestHandleSettingsUpdatedInvalidatesCache(t *testing.T) {
	cache := newMemoryBundleCache()
	seedBundle(t, cache, "alpha.myshopify.com")
	s := cachedService(cache)

	err := s.HandleSettingsUpdated(&events.SettingsUpdatedEvent{
		ShopDomain: "alpha.myshopify.com",
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("HandleSettingsUpdated: %v", err)
	}

	if _, ok := cache.Get(context.Background(), "cartdrawer:settings:alpha.myshopify.com"); ok {
		t.Error("cache entry survived the settings-updated event")
	}
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if len(cache.deletes) != 1 || cache.deletes[0] != "cartdrawer:settings:alpha.myshopify.com" {
		t.Errorf("deletes = %v", cache.deletes)
	}
}

func TestHandleSettingsUpdatedScopedToOneShop(t *testing.T) {
	cache := newMemoryBundleCache()
	seedBundle(t, cache, "alpha.myshopify.com")
	seedBundle(t, cache, "beta.myshopify.com")
	s := cachedService(cache)

	s.HandleSettingsUpdated(&events.SettingsUpdatedEvent{ShopDomain: "alpha.myshopify.com"})

	if _, ok := cache.Get(context.Background(), "cartdrawer:settings:beta.myshopify.com"); !ok {
		t.Error("unrelated shop's cache entry was invalidated")
	}
}

func TestInvalidateCacheWithoutBackendIsNoOp(t *testing.T) {
	s := NewSettingsService(nil, nil, nil, &SettingsServiceConfig{}, zap.NewNop())
	// Must not panic with caching disabled.
	s.InvalidateCache(context.Background(), "alpha.myshopify.com")
	if err := s.HandleSettingsUpdated(&events.SettingsUpdatedEvent{ShopDomain: "alpha.myshopify.com"}); err != nil {
		t.Fatalf("HandleSettingsUpdated: %v", err)
	}
}
