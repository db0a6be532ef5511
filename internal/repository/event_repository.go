package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/niaga-platform/service-cartdrawer/internal/models"
)

// EventRepository persists ingested widget analytics events.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates an EventRepository.
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create stores one event.
func (r *EventRepository) Create(ctx context.Context, event *models.AnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
