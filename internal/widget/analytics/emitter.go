// Package analytics emits widget usage events to the analytics sink. The
// sink is strictly fire-and-forget: an emission failure is logged and
// swallowed, never surfaced to the shopper or the calling flow.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-cartdrawer/internal/widget/storage"
)

// SessionKey is the session-storage slot holding the analytics session ID.
const SessionKey = "cartdrawer:session_id"

// Event names emitted by the drawer.
const (
	EventDrawerOpened    = "drawer_opened"
	EventItemAdded       = "item_added"
	EventQuantityUpdated = "quantity_updated"
	EventItemRemoved     = "item_removed"
)

// Emitter posts events to the sink.
type Emitter struct {
	endpoint   string
	shopDomain string
	sessionID  string
	httpClient *http.Client
	logger     *zap.Logger

	wg sync.WaitGroup
}

// Config holds Emitter construction parameters.
type Config struct {
	// Endpoint is the event ingest URL. Empty disables emission entirely.
	Endpoint   string
	ShopDomain string
	// SessionStore persists the session ID for the tab's lifetime so events
	// from one visit correlate.
	SessionStore storage.KV
	HTTPClient   *http.Client

	Logger *zap.Logger
}

// New creates an Emitter, generating and persisting a session ID when the
// session store does not already hold one.
func New(cfg Config) *Emitter {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	store := cfg.SessionStore
	if store == nil {
		store = storage.NewMemory()
	}

	sessionID, ok := store.Get(SessionKey)
	if !ok || sessionID == "" {
		sessionID = uuid.NewString()
		store.Set(SessionKey, sessionID)
	}

	return &Emitter{
		endpoint:   cfg.Endpoint,
		shopDomain: cfg.ShopDomain,
		sessionID:  sessionID,
		httpClient: client,
		logger:     logger,
	}
}

// SessionID returns the session identifier events are correlated under.
func (e *Emitter) SessionID() string {
	return e.sessionID
}

// payload is the ingest wire shape.
type payload struct {
	EventType  string         `json:"eventType"`
	SessionID  string         `json:"sessionId"`
	ShopDomain string         `json:"shopDomain"`
	CartTotal  int64          `json:"cartTotal"`
	ItemCount  int            `json:"itemCount"`
	Extra      map[string]any `json:"extra,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Emit sends the event asynchronously. It returns immediately; the caller's
// flow is never blocked or failed by the sink.
func (e *Emitter) Emit(eventType string, cartTotal int64, itemCount int, extra map[string]any) {
	if e.endpoint == "" {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.send(payload{
			EventType:  eventType,
			SessionID:  e.sessionID,
			ShopDomain: e.shopDomain,
			CartTotal:  cartTotal,
			ItemCount:  itemCount,
			Extra:      extra,
			OccurredAt: time.Now().UTC(),
		})
	}()
}

// Flush waits for in-flight emissions, for orderly shutdown and tests.
func (e *Emitter) Flush() {
	e.wg.Wait()
}

func (e *Emitter) send(p payload) {
	body, err := json.Marshal(p)
	if err != nil {
		e.logger.Warn("failed to encode analytics event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("failed to build analytics request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Warn("analytics emission failed", zap.String("event", p.EventType), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		e.logger.Warn("analytics sink rejected event",
			zap.String("event", p.EventType),
			zap.Int("status", resp.StatusCode),
		)
	}
}
