package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-cartdrawer/internal/services"
)

// AnalyticsHandler ingests widget analytics events.
type AnalyticsHandler struct {
	service *services.AnalyticsService
	logger  *zap.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(service *services.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger,
	}
}

// IngestEvent stores one widget event
// POST /api/v1/widget/events
func (h *AnalyticsHandler) IngestEvent(c *gin.Context) {
	var input services.IngestEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	event, err := h.service.Record(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("Failed to record widget event",
			zap.String("shop", input.ShopDomain),
			zap.String("event", input.EventType),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": event.ID})
}
