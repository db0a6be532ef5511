package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Cart mirrors the storefront cart snapshot. It is replaced wholesale on
// every fetch, never patched field by field.
type Cart struct {
	Items      []LineItem `json:"items"`
	TotalPrice int64      `json:"total_price"`
	ItemCount  int        `json:"item_count"`
	Currency   string     `json:"currency"`
}

// LineItem is one cart line. Key is the stable line identifier used for
// mutations.
type LineItem struct {
	Key          string `json:"key"`
	ProductID    int64  `json:"product_id"`
	Title        string `json:"title"`
	VariantTitle string `json:"variant_title,omitempty"`
	Price        int64  `json:"price"`
	Quantity     int    `json:"quantity"`
	Image        string `json:"image,omitempty"`
}

// Normalize enforces the snapshot invariants: zero-quantity lines are absent
// and item_count equals the sum of line quantities. Platform responses
// already satisfy these, but a snapshot entering the engine is never trusted
// to.
func (c *Cart) Normalize() {
	lines := c.Items[:0]
	count := 0
	for _, item := range c.Items {
		if item.Quantity <= 0 {
			continue
		}
		lines = append(lines, item)
		count += item.Quantity
	}
	c.Items = lines
	c.ItemCount = count
}

// Client talks to the storefront cart endpoints for a single shop. Mutations
// are deliberately not retried: the drawer re-fetches the authoritative
// snapshot on success and keeps last-known-good state on failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientConfig holds Client construction parameters.
type ClientConfig struct {
	// BaseURL is the storefront origin, e.g. "https://shop.myshopify.com".
	BaseURL string
	// HTTPClient defaults to a 10s-timeout client.
	HTTPClient *http.Client

	Logger *zap.Logger
}

// NewClient creates a cart API client.
func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: client,
		logger:     logger,
	}
}

// GetCart fetches the current cart snapshot.
func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cart.js", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var cart Cart
	if err := json.Unmarshal(body, &cart); err != nil {
		return nil, fmt.Errorf("failed to parse cart: %w", err)
	}
	cart.Normalize()
	return &cart, nil
}

// AddToCart posts an intercepted product form to the line-item-add endpoint.
// The form is forwarded as-is, form-encoded, exactly as the theme would have
// submitted it.
func (c *Client) AddToCart(ctx context.Context, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cart/add.js",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	_, err = c.do(req)
	return err
}

// ChangeLine sets the quantity of the identified line. Quantity is clamped
// to zero before sending; zero removes the line from the server cart.
func (c *Client) ChangeLine(ctx context.Context, lineKey string, quantity int) error {
	if quantity < 0 {
		quantity = 0
	}
	payload, err := json.Marshal(map[string]any{
		"id":       lineKey,
		"quantity": quantity,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cart/change.js",
		bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cart request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart response: %w", err)
	}

	c.logger.Debug("cart request completed",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		// Business failures carry a JSON description.
		var decoded APIError
		if jsonErr := json.Unmarshal(body, &decoded); jsonErr == nil && decoded.Message != "" {
			decoded.StatusCode = resp.StatusCode
			apiErr = &decoded
		}
		c.logger.Warn("cart endpoint error",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	return body, nil
}
