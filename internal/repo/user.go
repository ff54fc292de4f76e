package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/titanaprilian/authguard/internal/apperr"
	"github.com/titanaprilian/authguard/internal/models"
)

// Emails are stored lower-cased; callers normalize before lookup.

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.ErrConflict
	}
	return nil
}

func (r *GormRepo) SaveUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Save(u).Error
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.DB.WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// DeleteUser removes the user and every refresh token it owns.
func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}

func bumpTokenVersion(db *gorm.DB, userID uint) error {
	return db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error
}

// BumpTokenVersion advances the user's revocation epoch, invalidating every
// access token issued against the old value.
func (r *GormRepo) BumpTokenVersion(ctx context.Context, userID uint) error {
	return bumpTokenVersion(r.DB.WithContext(ctx), userID)
}

// UpdatePasswordAndBumpVersion swaps the hash and advances the epoch in one
// transaction so a password change kills outstanding sessions atomically.
func (r *GormRepo) UpdatePasswordAndBumpVersion(ctx context.Context, userID uint, newHash string) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("password_hash", newHash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return bumpTokenVersion(tx, userID)
	})
}
