package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/titanaprilian/authguard/internal/apperr"
	"github.com/titanaprilian/authguard/internal/models"
)

func (r *GormRepo) CreateRefresh(ctx context.Context, token *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(token).Error
}

func (r *GormRepo) FindRefreshByID(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("id = ?", jti).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *GormRepo) RevokeRefresh(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ?", jti).
		Update("revoked", true).Error
}

// RotateRefresh revokes the presented row and inserts its successor in one
// transaction. The revoke is a compare-and-set on revoked=false, so when two
// requests race on the same token at most one rotation commits; the loser
// gets ErrInvalidToken.
func (r *GormRepo) RotateRefresh(ctx context.Context, oldJTI string, next *models.RefreshToken) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrInvalidToken
		}
		return tx.Create(next).Error
	})
}

// RevokeAllAndBumpVersion revokes every live refresh token of the user and
// advances the epoch exactly once, atomically. Used by logout-all.
func (r *GormRepo) RevokeAllAndBumpVersion(ctx context.Context, userID uint) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&models.RefreshToken{}).
			Where("user_id = ? AND revoked = ?", userID, false).
			Update("revoked", true).Error; err != nil {
			return err
		}
		return bumpTokenVersion(tx, userID)
	})
}
