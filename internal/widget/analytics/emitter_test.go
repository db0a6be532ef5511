package analytics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/niaga-platform/service-cartdrawer/internal/widget/storage"
)

func TestEmitterSessionIDPersists(t *testing.T) {
	store := storage.NewMemory()

	first := New(Config{SessionStore: store})
	if first.SessionID() == "" {
		t.Fatal("no session ID generated")
	}

	second := New(Config{SessionStore: store})
	if second.SessionID() != first.SessionID() {
		t.Errorf("session ID regenerated within one session: %q vs %q",
			second.SessionID(), first.SessionID())
	}

	third := New(Config{SessionStore: storage.NewMemory()})
	if third.SessionID() == first.SessionID() {
		t.Error("fresh session store should yield a fresh session ID")
	}
}

func TestEmitSendsPayload(t *testing.T) {
	var mu sync.Mutex
	var received []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	e := New(Config{Endpoint: srv.URL, ShopDomain: "alpha.myshopify.com"})
	e.Emit(EventDrawerOpened, 3998, 2, map[string]any{"source": "sticky"})
	e.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("received %d events, want 1", len(received))
	}
	p := received[0]
	if p["eventType"] != EventDrawerOpened || p["shopDomain"] != "alpha.myshopify.com" {
		t.Errorf("payload = %v", p)
	}
	if p["cartTotal"] != float64(3998) || p["itemCount"] != float64(2) {
		t.Errorf("payload totals = %v", p)
	}
	if p["sessionId"] != e.SessionID() {
		t.Errorf("sessionId = %v, want %q", p["sessionId"], e.SessionID())
	}
}

func TestEmitSwallowsSinkFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := New(Config{Endpoint: srv.URL})
	e.Emit(EventItemAdded, 0, 0, nil)
	e.Flush() // must not panic or block

	dead := New(Config{Endpoint: "http://127.0.0.1:1"})
	dead.Emit(EventItemAdded, 0, 0, nil)
	dead.Flush()
}

func TestEmitDisabledWithoutEndpoint(t *testing.T) {
	e := New(Config{})
	e.Emit(EventDrawerOpened, 100, 1, nil)
	e.Flush()
}
