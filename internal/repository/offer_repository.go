package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/niaga-platform/service-cartdrawer/internal/models"
)

// OfferRepository reads the upsell and add-on offers for a shop.
type OfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates an OfferRepository.
func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// ListUpsells returns the shop's upsell offers in display order.
func (r *OfferRepository) ListUpsells(ctx context.Context, shopDomain string) ([]models.UpsellProduct, error) {
	var upsells []models.UpsellProduct
	err := r.db.WithContext(ctx).
		Where("shop_domain = ?", shopDomain).
		Order("display_order ASC").
		Find(&upsells).Error
	return upsells, err
}

// ListAddOns returns the shop's add-on offers in display order.
func (r *OfferRepository) ListAddOns(ctx context.Context, shopDomain string) ([]models.AddOnProduct, error) {
	var addOns []models.AddOnProduct
	err := r.db.WithContext(ctx).
		Where("shop_domain = ?", shopDomain).
		Order("display_order ASC").
		Find(&addOns).Error
	return addOns, err
}

// ReplaceUpsells swaps the shop's upsell list atomically.
func (r *OfferRepository) ReplaceUpsells(ctx context.Context, shopDomain string, upsells []models.UpsellProduct) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shop_domain = ?", shopDomain).Delete(&models.UpsellProduct{}).Error; err != nil {
			return err
		}
		if len(upsells) == 0 {
			return nil
		}
		return tx.Create(&upsells).Error
	})
}

// ReplaceAddOns swaps the shop's add-on list atomically.
func (r *OfferRepository) ReplaceAddOns(ctx context.Context, shopDomain string, addOns []models.AddOnProduct) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shop_domain = ?", shopDomain).Delete(&models.AddOnProduct{}).Error; err != nil {
			return err
		}
		if len(addOns) == 0 {
			return nil
		}
		return tx.Create(&addOns).Error
	})
}
