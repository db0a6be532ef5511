// Package repository provides data access for the settings provider.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/niaga-platform/service-cartdrawer/internal/models"
)

// ErrNotFound is returned when no record exists for the lookup.
var ErrNotFound = errors.New("record not found")

// SettingsRepository persists raw shop settings documents.
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a SettingsRepository.
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetByShop returns the settings document for a shop domain.
func (r *SettingsRepository) GetByShop(ctx context.Context, shopDomain string) (*models.ShopSettings, error) {
	var settings models.ShopSettings
	err := r.db.WithContext(ctx).Where("shop_domain = ?", shopDomain).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert creates or replaces the settings document for a shop domain.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.ShopSettings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(settings).Error
}
