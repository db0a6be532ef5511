package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoadFirstTierJSON(t *testing.T) {
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/settings/test-shop.myshopify.com.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"settings": {"themeColor": "#123456", "freeShippingEnabled": true, "freeShippingThreshold": 5000},
			"upsells": [{"productId": "u1", "title": "Tote", "priceMinorUnits": 1200}],
			"addOns": [{"productId": "a1", "title": "Gift Wrap", "price_cents": 299, "defaultSelected": true}]
		}`))
	}))
	defer cdn.Close()

	l := New(Config{CDNBaseURL: cdn.URL})
	bundle := l.Load(context.Background(), "test-shop.myshopify.com")

	if bundle.Settings.ThemeColor != "#123456" {
		t.Errorf("ThemeColor = %q", bundle.Settings.ThemeColor)
	}
	if !bundle.Settings.FreeShipping.Enabled || bundle.Settings.FreeShipping.ThresholdMinorUnits != 5000 {
		t.Errorf("FreeShipping = %+v", bundle.Settings.FreeShipping)
	}
	if len(bundle.Upsells) != 1 || bundle.Upsells[0].ProductID != "u1" {
		t.Errorf("Upsells = %+v", bundle.Upsells)
	}
	if !bundle.SelectedAddOnIDs["a1"] {
		t.Errorf("default-selected add-on not seeded: %v", bundle.SelectedAddOnIDs)
	}
}

func TestLoadFallsBackToScriptTier(t *testing.T) {
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/settings/test-shop.myshopify.com.json":
			http.NotFound(w, r)
		case "/settings/test-shop.myshopify.com.js":
			w.Write([]byte(SlotSettings + ` = {"drawerPosition": "left"};` + "\n" +
				SlotUpsells + ` = [{"productId": "u1", "title": "Tote", "price": 12.00}];` + "\n"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer cdn.Close()

	l := New(Config{CDNBaseURL: cdn.URL})
	bundle := l.Load(context.Background(), "test-shop.myshopify.com")

	if bundle.Settings.DrawerPosition != "left" {
		t.Errorf("DrawerPosition = %q", bundle.Settings.DrawerPosition)
	}
	if len(bundle.Upsells) != 1 || bundle.Upsells[0].PriceMinorUnits != 1200 {
		t.Errorf("Upsells = %+v", bundle.Upsells)
	}
}

func TestLoadFallsBackToProxyTier(t *testing.T) {
	cdn := httptest.NewServer(http.NotFoundHandler())
	defer cdn.Close()
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("shop") != "test-shop.myshopify.com" {
			t.Errorf("shop query = %q", r.URL.Query().Get("shop"))
		}
		w.Write([]byte(SlotSettings + ` = {"announcement": "proxy tier"};`))
	}))
	defer proxy.Close()

	l := New(Config{CDNBaseURL: cdn.URL, ProxyBaseURL: proxy.URL})
	bundle := l.Load(context.Background(), "test-shop.myshopify.com")

	if bundle.Settings.AnnouncementText != "proxy tier" {
		t.Errorf("AnnouncementText = %q", bundle.Settings.AnnouncementText)
	}
}

func TestLoadAllTiersFailYieldsDefaults(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	l := New(Config{CDNBaseURL: down.URL, ProxyBaseURL: down.URL})
	bundle := l.Load(context.Background(), "test-shop.myshopify.com")

	if bundle == nil {
		t.Fatal("Load returned nil")
	}
	if bundle.Settings != Defaults() {
		t.Errorf("Settings = %+v, want Defaults()", bundle.Settings)
	}
	if len(bundle.Upsells) != 0 || len(bundle.AddOns) != 0 {
		t.Errorf("default bundle carries offers: %+v", bundle)
	}
}

func TestLoadTierTimeoutDegrades(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	l := New(Config{CDNBaseURL: slow.URL, TierTimeout: 30 * time.Millisecond})

	done := make(chan *Bundle, 1)
	go func() { done <- l.Load(context.Background(), "test-shop.myshopify.com") }()
	select {
	case bundle := <-done:
		if bundle.Settings != Defaults() {
			t.Errorf("Settings = %+v, want Defaults()", bundle.Settings)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Load did not respect tier timeout")
	}
}

func TestParseScript(t *testing.T) {
	t.Run("extracts nested and escaped literals", func(t *testing.T) {
		body := `/* generated */
` + SlotSettings + ` = {"buttonText": "Add {now}", "nested": {"a": [1, 2]}, "quote": "she said \"hi\""};
` + SlotAddOns + ` = [{"productId": "a1", "title": "Wrap"}];
console.log("ignored");`
		payload, err := parseScript(body)
		if err != nil {
			t.Fatalf("parseScript: %v", err)
		}
		if payload.settings["buttonText"] != "Add {now}" {
			t.Errorf("buttonText = %v", payload.settings["buttonText"])
		}
		if len(payload.addOns) != 1 {
			t.Errorf("addOns = %v", payload.addOns)
		}
		if payload.upsells != nil {
			t.Errorf("absent optional slot should stay nil, got %v", payload.upsells)
		}
	})

	t.Run("rejects documents without the settings slot", func(t *testing.T) {
		if _, err := parseScript(`window.other = {};`); err == nil {
			t.Error("want error for missing settings slot")
		}
	})

	t.Run("rejects unterminated literals", func(t *testing.T) {
		if _, err := parseScript(SlotSettings + ` = {"a": 1`); err == nil {
			t.Error("want error for unterminated literal")
		}
	})

	t.Run("rejects non-object assignments", func(t *testing.T) {
		if _, err := parseScript(SlotSettings + ` = alert(1);`); err == nil {
			t.Error("want error for non-literal assignment")
		}
	})
}
