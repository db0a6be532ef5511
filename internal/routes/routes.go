package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/niaga-platform/service-cartdrawer/internal/handlers"
)

// RouteConfig holds configuration for routes
type RouteConfig struct {
	SettingsHandler  *handlers.SettingsHandler
	AnalyticsHandler *handlers.AnalyticsHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *RouteConfig) {
	v1 := router.Group("/api/v1")

	// Public widget routes (consumed by the storefront script; no auth)
	widget := v1.Group("/widget")
	{
		widget.GET("/settings/:shop", cfg.SettingsHandler.GetSettings)
		widget.GET("/settings/:shop/script.js", cfg.SettingsHandler.GetSettingsScript)
		widget.POST("/events", cfg.AnalyticsHandler.IngestEvent)
	}

	// App-proxy routes (authenticity enforced by the signature check in the
	// handler, not by middleware, so the failure shape matches the platform)
	proxied := v1.Group("/proxy")
	{
		proxied.GET("/widget/settings", cfg.SettingsHandler.ProxySettings)
	}

	// Admin routes (authentication is handled upstream by the dashboard's
	// gateway; this service only exposes the write surface)
	admin := v1.Group("/admin/widget")
	{
		admin.PUT("/settings/:shop", cfg.SettingsHandler.UpdateSettings)
		admin.PUT("/offers/:shop", cfg.SettingsHandler.UpdateOffers)
	}
}
