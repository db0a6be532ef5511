package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/niaga-platform/service-cartdrawer/internal/events"
	"github.com/niaga-platform/service-cartdrawer/internal/models"
	"github.com/niaga-platform/service-cartdrawer/internal/repository"
)

// AnalyticsService ingests widget events. Persistence is the only required
// step; the NATS notification is best-effort.
type AnalyticsService struct {
	eventRepo *repository.EventRepository
	publisher *events.Publisher
	logger    *zap.Logger
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(
	eventRepo *repository.EventRepository,
	publisher *events.Publisher,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		eventRepo: eventRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// IngestEventInput is one incoming widget event.
type IngestEventInput struct {
	ShopDomain string         `json:"shopDomain" binding:"required"`
	SessionID  string         `json:"sessionId"`
	EventType  string         `json:"eventType" binding:"required"`
	CartTotal  int64          `json:"cartTotal"`
	ItemCount  int            `json:"itemCount"`
	Extra      map[string]any `json:"extra"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Record persists the event and announces it.
func (s *AnalyticsService) Record(ctx context.Context, input *IngestEventInput) (*models.AnalyticsEvent, error) {
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	event := &models.AnalyticsEvent{
		ShopDomain: input.ShopDomain,
		SessionID:  input.SessionID,
		EventType:  input.EventType,
		CartTotal:  input.CartTotal,
		ItemCount:  input.ItemCount,
		OccurredAt: occurredAt,
	}
	if len(input.Extra) > 0 {
		extra, err := json.Marshal(input.Extra)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event extras: %w", err)
		}
		event.Extra = datatypes.JSON(extra)
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to store event: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishEventRecorded(&events.EventRecordedEvent{
			ShopDomain: event.ShopDomain,
			SessionID:  event.SessionID,
			EventType:  event.EventType,
			Timestamp:  event.OccurredAt,
		})
	}

	s.logger.Debug("widget event recorded",
		zap.String("shop", event.ShopDomain),
		zap.String("event", event.EventType),
	)
	return event, nil
}
