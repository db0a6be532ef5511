// Package handlers implements the provider's HTTP surface.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-cartdrawer/internal/models"
	"github.com/niaga-platform/service-cartdrawer/internal/proxy"
	"github.com/niaga-platform/service-cartdrawer/internal/services"
	"github.com/niaga-platform/service-cartdrawer/internal/widget/loader"
)

// SettingsHandler serves widget settings bundles in the shapes the widget's
// fallback chain consumes: plain JSON, the script form, and the app-proxy
// script form.
type SettingsHandler struct {
	service   *services.SettingsService
	signature *proxy.Signature
	logger    *zap.Logger
}

// NewSettingsHandler creates a SettingsHandler. signature may be nil when no
// proxy secret is configured; the proxy route then rejects everything.
func NewSettingsHandler(service *services.SettingsService, signature *proxy.Signature, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		service:   service,
		signature: signature,
		logger:    logger,
	}
}

// GetSettings returns the JSON settings bundle
// GET /api/v1/widget/settings/:shop
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	shop := normalizeShopParam(c.Param("shop"))
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop domain"})
		return
	}

	bundle, err := h.service.GetBundle(c.Request.Context(), shop)
	if errors.Is(err, services.ErrShopNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown shop"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load settings bundle", zap.String("shop", shop), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, bundle)
}

// GetSettingsScript returns the script form of the bundle
// GET /api/v1/widget/settings/:shop/script.js
func (h *SettingsHandler) GetSettingsScript(c *gin.Context) {
	shop := normalizeShopParam(c.Param("shop"))
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop domain"})
		return
	}
	h.renderScript(c, shop)
}

// ProxySettings returns the script form for requests forwarded through the
// storefront app proxy
// GET /api/v1/proxy/widget/settings?shop=...
func (h *SettingsHandler) ProxySettings(c *gin.Context) {
	if h.signature == nil || !h.signature.Verify(c.Request.URL.Query()) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid proxy signature"})
		return
	}

	shop := normalizeShopParam(c.Query("shop"))
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing shop parameter"})
		return
	}
	h.renderScript(c, shop)
}

// UpdateSettingsRequest carries the raw settings document to store.
type UpdateSettingsRequest struct {
	Settings json.RawMessage `json:"settings" binding:"required"`
}

// UpdateSettings upserts a shop's settings document
// PUT /api/v1/admin/widget/settings/:shop
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	shop := normalizeShopParam(c.Param("shop"))
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop domain"})
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !json.Valid(req.Settings) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Settings must be valid JSON"})
		return
	}

	if err := h.service.UpdateSettings(c.Request.Context(), shop, req.Settings); err != nil {
		h.logger.Error("Failed to update settings", zap.String("shop", shop), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated", "shop": shop})
}

// UpdateOffersRequest carries the full replacement offer lists.
type UpdateOffersRequest struct {
	Upsells []models.UpsellProduct `json:"upsells"`
	AddOns  []models.AddOnProduct  `json:"addOns"`
}

// UpdateOffers replaces a shop's upsell and add-on lists
// PUT /api/v1/admin/widget/offers/:shop
func (h *SettingsHandler) UpdateOffers(c *gin.Context) {
	shop := normalizeShopParam(c.Param("shop"))
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop domain"})
		return
	}

	var req UpdateOffersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	for i := range req.Upsells {
		req.Upsells[i].ShopDomain = shop
	}
	for i := range req.AddOns {
		req.AddOns[i].ShopDomain = shop
	}

	if err := h.service.ReplaceOffers(c.Request.Context(), shop, req.Upsells, req.AddOns); err != nil {
		h.logger.Error("Failed to update offers", zap.String("shop", shop), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update offers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Offers updated",
		"shop":    shop,
		"upsells": len(req.Upsells),
		"addOns":  len(req.AddOns),
	})
}

// renderScript writes the bundle as an executable document whose only side
// effect is populating the widget's known global slots. The slot names are
// shared constants with the widget loader, so the two sides cannot drift.
func (h *SettingsHandler) renderScript(c *gin.Context, shop string) {
	bundle, err := h.service.GetBundle(c.Request.Context(), shop)
	if errors.Is(err, services.ErrShopNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown shop"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load settings bundle", zap.String("shop", shop), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	script, err := buildSettingsScript(bundle)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode settings"})
		return
	}

	c.Header("Cache-Control", "public, max-age=60")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", script)
}

// buildSettingsScript renders a bundle as an executable document that only
// assigns JSON literals to the widget's global slots.
func buildSettingsScript(bundle *services.SettingsBundle) ([]byte, error) {
	upsellList := bundle.Upsells
	if upsellList == nil {
		upsellList = []models.UpsellProduct{}
	}
	addOnList := bundle.AddOns
	if addOnList == nil {
		addOnList = []models.AddOnProduct{}
	}

	upsells, err := json.Marshal(upsellList)
	if err != nil {
		return nil, err
	}
	addOns, err := json.Marshal(addOnList)
	if err != nil {
		return nil, err
	}

	settings := bundle.Settings
	if len(settings) == 0 {
		settings = json.RawMessage("{}")
	}

	var script strings.Builder
	fmt.Fprintf(&script, "%s = %s;\n", loader.SlotSettings, settings)
	fmt.Fprintf(&script, "%s = %s;\n", loader.SlotUpsells, upsells)
	fmt.Fprintf(&script, "%s = %s;\n", loader.SlotAddOns, addOns)
	return []byte(script.String()), nil
}

// normalizeShopParam trims and lowercases a shop domain parameter.
func normalizeShopParam(shop string) string {
	return strings.ToLower(strings.TrimSpace(shop))
}
