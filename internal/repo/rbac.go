package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/titanaprilian/authguard/internal/apperr"
	"github.com/titanaprilian/authguard/internal/models"
)

func (r *GormRepo) FindRoleByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := r.DB.WithContext(ctx).First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *GormRepo) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *GormRepo) ListRoles(ctx context.Context, offset, limit int) ([]models.Role, int64, error) {
	var roles []models.Role
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Role{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.DB.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&roles).Error; err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

func (r *GormRepo) FindFeatureByID(ctx context.Context, id uint) (*models.Feature, error) {
	var feature models.Feature
	if err := r.DB.WithContext(ctx).First(&feature, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &feature, nil
}

func (r *GormRepo) FindFeatureByName(ctx context.Context, name string) (*models.Feature, error) {
	var feature models.Feature
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&feature).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &feature, nil
}

func (r *GormRepo) ListFeatures(ctx context.Context, offset, limit int) ([]models.Feature, int64, error) {
	var features []models.Feature
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Feature{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.DB.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&features).Error; err != nil {
		return nil, 0, err
	}
	return features, total, nil
}

// FindPermission resolves the action flags for (role, feature name). A
// missing feature or row surfaces as ErrNotFound.
func (r *GormRepo) FindPermission(ctx context.Context, roleID uint, featureName string) (*models.RoleFeature, error) {
	feature, err := r.FindFeatureByName(ctx, featureName)
	if err != nil {
		return nil, err
	}

	var row models.RoleFeature
	if err := r.DB.WithContext(ctx).
		Where("role_id = ? AND feature_id = ?", roleID, feature.ID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *GormRepo) ListPermissionsByRole(ctx context.Context, roleID uint) ([]models.RoleFeature, error) {
	var rows []models.RoleFeature
	if err := r.DB.WithContext(ctx).
		Where("role_id = ?", roleID).
		Order("feature_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateRoleWithBackfill inserts the role and one permission row per
// existing feature, all in one transaction. supplied is keyed by feature id;
// features it names must exist, features it omits get all-false rows.
func (r *GormRepo) CreateRoleWithBackfill(ctx context.Context, role *models.Role, supplied map[uint]models.RoleFeature) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("name = ?", role.Name).FirstOrCreate(role)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrConflict
		}

		var features []models.Feature
		if err := tx.Find(&features).Error; err != nil {
			return err
		}

		known := make(map[uint]bool, len(features))
		rows := make([]models.RoleFeature, 0, len(features))
		for _, f := range features {
			known[f.ID] = true
			row := supplied[f.ID]
			row.ID = 0
			row.RoleID = role.ID
			row.FeatureID = f.ID
			rows = append(rows, row)
		}
		for featureID := range supplied {
			if !known[featureID] {
				return apperr.ErrInvalidReference
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// UpdateRoleWithPermissions saves the role and, when supplied is non-nil,
// wipes and replaces its permission rows. Features the caller omitted are
// re-filled with all-false rows so the coverage invariant holds.
func (r *GormRepo) UpdateRoleWithPermissions(ctx context.Context, role *models.Role, supplied map[uint]models.RoleFeature) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Save(role).Error; err != nil {
			return err
		}
		if supplied == nil {
			return nil
		}

		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RoleFeature{}).Error; err != nil {
			return err
		}

		var features []models.Feature
		if err := tx.Find(&features).Error; err != nil {
			return err
		}

		known := make(map[uint]bool, len(features))
		rows := make([]models.RoleFeature, 0, len(features))
		for _, f := range features {
			known[f.ID] = true
			row := supplied[f.ID]
			row.ID = 0
			row.RoleID = role.ID
			row.FeatureID = f.ID
			rows = append(rows, row)
		}
		for featureID := range supplied {
			if !known[featureID] {
				return apperr.ErrInvalidReference
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// DeleteRole cascades the role's permission rows inside the transaction. The
// delete checks RowsAffected so concurrent deletes resolve to exactly one
// winner; the rest see ErrNotFound.
func (r *GormRepo) DeleteRole(ctx context.Context, id uint) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		var assigned int64
		if err := tx.Model(&models.User{}).Where("role_id = ?", id).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return apperr.ErrConflict
		}

		if err := tx.Where("role_id = ?", id).Delete(&models.RoleFeature{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Role{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}

// CreateFeatureWithBackfill inserts the feature and one permission row per
// existing role. Privileged roles receive all-true rows regardless of the
// supplied defaults.
func (r *GormRepo) CreateFeatureWithBackfill(ctx context.Context, feature *models.Feature, defaults models.RoleFeature) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("name = ?", feature.Name).FirstOrCreate(feature)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrConflict
		}

		var roles []models.Role
		if err := tx.Find(&roles).Error; err != nil {
			return err
		}

		rows := make([]models.RoleFeature, 0, len(roles))
		for _, role := range roles {
			row := defaults
			if role.IsPrivileged {
				row = models.RoleFeature{
					CanCreate: true,
					CanRead:   true,
					CanUpdate: true,
					CanDelete: true,
					CanPrint:  true,
				}
			}
			row.ID = 0
			row.RoleID = role.ID
			row.FeatureID = feature.ID
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *GormRepo) SaveFeature(ctx context.Context, feature *models.Feature) error {
	return r.DB.WithContext(ctx).Save(feature).Error
}

func (r *GormRepo) DeleteFeature(ctx context.Context, id uint) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("feature_id = ?", id).Delete(&models.RoleFeature{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Feature{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}
