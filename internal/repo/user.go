package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type ProfileUpdate struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	ImageURL string
}

func emailTaken(tx *gorm.DB, email string, exceptID uint) (bool, error) {
	var n int64
	q := tx.Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := emailTaken(tx, u.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicate
		}
		return translate(tx.Create(u).Error)
	})
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile checks email ownership and writes in one transaction.
func (r *GormRepo) UpdateProfile(ctx context.Context, id uint, p ProfileUpdate, now time.Time) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}
		taken, err := emailTaken(tx, p.Email, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicate
		}

		res := tx.Model(&u).Updates(map[string]any{
			"name":       p.Name,
			"email":      p.Email,
			"phone":      p.Phone,
			"address":    p.Address,
			"image_url":  p.ImageURL,
			"updated_at": now,
		})
		if res.Error != nil {
			return translate(res.Error)
		}
		return tx.First(&u, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetRefreshToken overwrites the single refresh slot of the user.
func (r *GormRepo) SetRefreshToken(ctx context.Context, id uint, hash string, exp time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"refresh_token_hash":       hash,
		"refresh_token_expires_at": exp,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) UserByRefreshHash(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).
		Where("refresh_token_hash = ? AND refresh_token_expires_at > ?", hash, now).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}
