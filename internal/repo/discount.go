package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) CreateDiscount(ctx context.Context, d *models.DiscountCode) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.DiscountCode{}).Where("code = ?", d.Code).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		return translate(tx.Create(d).Error)
	})
}

func (r *GormRepo) DiscountByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var d models.DiscountCode
	if err := r.DB.WithContext(ctx).Where("code = ?", code).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ConsumeDiscount spends one use of code in a single conditional UPDATE.
// A code is consumable while it is active, its expiry is not before
// startOfToday and it still has uses left (max_uses = 0 means unlimited).
// Reaching the cap flips the status to inactive in the same statement.
// ErrNotFound means no row qualified.
func (r *GormRepo) ConsumeDiscount(ctx context.Context, code string, startOfToday time.Time) (*models.DiscountCode, error) {
	var d models.DiscountCode
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.DiscountCode{}).
			Where("code = ? AND status = ? AND expires_at >= ? AND (use_count < max_uses OR max_uses = 0)",
				code, models.DiscountStatusActive, startOfToday).
			Updates(map[string]any{
				"use_count": gorm.Expr("use_count + 1"),
				"status": gorm.Expr("CASE WHEN max_uses <> 0 AND use_count + 1 >= max_uses THEN ? ELSE status END",
					models.DiscountStatusInactive),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("code = ?", code).First(&d).Error
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDiscounts returns active codes first, then by expiry, latest first.
func (r *GormRepo) ListDiscounts(ctx context.Context) ([]models.DiscountCode, error) {
	items := make([]models.DiscountCode, 0)
	err := r.DB.WithContext(ctx).
		Order("CASE WHEN status = '" + models.DiscountStatusActive + "' THEN 0 ELSE 1 END, expires_at DESC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
