// Package models defines the persisted records behind the widget settings
// provider.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ShopSettings is the raw widget settings document for one shop. Payload is
// stored as-is; normalization into the canonical model happens client-side
// in the widget's configuration loader, so historical key aliases survive
// round trips untouched.
type ShopSettings struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ShopDomain string         `gorm:"uniqueIndex;not null" json:"shop_domain"`
	Payload    datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// BeforeCreate assigns the record ID.
func (s *ShopSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// UpsellProduct is a merchant-configured upsell offer shown in the drawer.
type UpsellProduct struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShopDomain      string    `gorm:"index;not null" json:"shop_domain"`
	ProductID       string    `gorm:"not null" json:"productId"`
	Title           string    `json:"title"`
	PriceMinorUnits int64     `json:"priceMinorUnits"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	DisplayOrder    int       `json:"displayOrder"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BeforeCreate assigns the record ID.
func (p *UpsellProduct) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AddOnProduct is a merchant-configured add-on offer. DefaultSelected seeds
// the widget's initial selection.
type AddOnProduct struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShopDomain      string    `gorm:"index;not null" json:"shop_domain"`
	ProductID       string    `gorm:"not null" json:"productId"`
	Title           string    `json:"title"`
	PriceMinorUnits int64     `json:"priceMinorUnits"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	Description     string    `json:"description,omitempty"`
	DefaultSelected bool      `json:"defaultSelected"`
	DisplayOrder    int       `json:"displayOrder"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BeforeCreate assigns the record ID.
func (p *AddOnProduct) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AnalyticsEvent is one ingested widget event. Extra carries the
// event-specific fields verbatim.
type AnalyticsEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ShopDomain string         `gorm:"index;not null" json:"shop_domain"`
	SessionID  string         `gorm:"index" json:"session_id"`
	EventType  string         `gorm:"index;not null" json:"event_type"`
	CartTotal  int64          `json:"cart_total"`
	ItemCount  int            `json:"item_count"`
	Extra      datatypes.JSON `gorm:"type:jsonb" json:"extra,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	CreatedAt  time.Time      `json:"created_at"`
}

// BeforeCreate assigns the record ID.
func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
