package shopctx

import (
	"context"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/niaga-platform/service-cartdrawer/internal/widget/storage"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestResolveQueryParameterWinsAndPersists(t *testing.T) {
	store := storage.NewMemory()
	r := NewResolver(Config{
		PageURL:      mustParse(t, "https://example.com/products/x?shop=alpha.myshopify.com"),
		HostGlobal:   func() string { return "beta.myshopify.com" },
		Store:        store,
		PollAttempts: 1,
		PollInterval: time.Millisecond,
	})

	got := r.Resolve(context.Background())
	if got == nil || got.ShopDomain != "alpha.myshopify.com" {
		t.Fatalf("Resolve = %+v, want alpha.myshopify.com", got)
	}
	if cached, _ := store.Get(StorageKey); cached != "alpha.myshopify.com" {
		t.Errorf("persisted = %q", cached)
	}
}

func TestResolveWaitsForLateHostGlobal(t *testing.T) {
	var calls atomic.Int32
	r := NewResolver(Config{
		PageURL: mustParse(t, "https://example.com/"),
		HostGlobal: func() string {
			if calls.Add(1) >= 4 {
				return "late.myshopify.com"
			}
			return ""
		},
		PollAttempts: 10,
		PollInterval: time.Millisecond,
	})

	got := r.Resolve(context.Background())
	if got == nil || got.ShopDomain != "late.myshopify.com" {
		t.Fatalf("Resolve = %+v, want late.myshopify.com", got)
	}
	if calls.Load() != 4 {
		t.Errorf("host global polled %d times, want 4", calls.Load())
	}
}

func TestResolveHostGlobalGivesUpAfterWindow(t *testing.T) {
	var calls atomic.Int32
	r := NewResolver(Config{
		PageURL:      mustParse(t, "https://example.com/"),
		HostGlobal:   func() string { calls.Add(1); return "" },
		PollAttempts: 5,
		PollInterval: time.Millisecond,
	})

	if got := r.Resolve(context.Background()); got != nil {
		t.Fatalf("Resolve = %+v, want nil", got)
	}
	if calls.Load() != 5 {
		t.Errorf("host global polled %d times, want 5", calls.Load())
	}
}

func TestResolveFromStorage(t *testing.T) {
	store := storage.NewMemory()
	store.Set(StorageKey, "cached.myshopify.com")
	r := NewResolver(Config{
		PageURL:      mustParse(t, "https://example.com/"),
		Store:        store,
		PollAttempts: 1,
		PollInterval: time.Millisecond,
	})

	got := r.Resolve(context.Background())
	if got == nil || got.ShopDomain != "cached.myshopify.com" {
		t.Fatalf("Resolve = %+v, want cached.myshopify.com", got)
	}
}

func TestResolveRejectsPlaceholderFromStorage(t *testing.T) {
	store := storage.NewMemory()
	store.Set(StorageKey, "demo-shop.myshopify.com")
	r := NewResolver(Config{
		PageURL:      mustParse(t, "https://example.com/"),
		Store:        store,
		PollAttempts: 1,
		PollInterval: time.Millisecond,
	})

	if got := r.Resolve(context.Background()); got != nil {
		t.Fatalf("placeholder resurrected: %+v", got)
	}
}

func TestResolveFromPlatformHostname(t *testing.T) {
	store := storage.NewMemory()
	r := NewResolver(Config{
		PageURL:      mustParse(t, "https://gamma.myshopify.com/cart"),
		Store:        store,
		PollAttempts: 1,
		PollInterval: time.Millisecond,
	})

	got := r.Resolve(context.Background())
	if got == nil || got.ShopDomain != "gamma.myshopify.com" {
		t.Fatalf("Resolve = %+v, want gamma.myshopify.com", got)
	}
	if cached, _ := store.Get(StorageKey); cached != "gamma.myshopify.com" {
		t.Errorf("persisted = %q", cached)
	}
}

func TestResolveCustomDomainWithoutSourcesFailsClosed(t *testing.T) {
	r := NewResolver(Config{
		PageURL:      mustParse(t, "https://www.custom-store.com/"),
		PollAttempts: 1,
		PollInterval: time.Millisecond,
	})
	if got := r.Resolve(context.Background()); got != nil {
		t.Fatalf("Resolve = %+v, want nil", got)
	}
}

func TestResolveHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewResolver(Config{
		PageURL:      mustParse(t, "https://example.com/"),
		HostGlobal:   func() string { return "" },
		PollAttempts: 50,
		PollInterval: 100 * time.Millisecond,
	})

	start := time.Now()
	got := r.Resolve(ctx)
	if got != nil {
		t.Fatalf("Resolve = %+v, want nil", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled resolve took %v", elapsed)
	}
}
