package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	IsActive     bool   `gorm:"not null;default:true"    json:"is_active"`
	TokenVersion int    `gorm:"not null;default:0"       json:"-"`
	RoleID       uint   `gorm:"index;not null"           json:"role_id"`
}

// RefreshToken is one issued refresh credential. ID is the jti embedded in
// the signed token. revoked is terminal: a revoked row never comes back.
type RefreshToken struct {
	ID        string    `gorm:"primaryKey"        json:"id"`
	UserID    uint      `gorm:"index;not null"    json:"user_id"`
	ExpiresAt int64     `gorm:"not null"          json:"expires_at"`
	Revoked   bool      `gorm:"default:false"     json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

type Role struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null"     json:"name"`
	Description string `json:"description"`
	// Privileged roles receive all-true permission rows when a new
	// feature is back-filled.
	IsPrivileged bool `gorm:"not null;default:false" json:"is_privileged"`
}

type Feature struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null"     json:"name"`
	Description string `json:"description"`
}

// RoleFeature holds the action flags for one (role, feature) pair.
// Exactly one row exists for every pair of a live role and a live feature.
type RoleFeature struct {
	ID        uint `gorm:"primaryKey;autoIncrement"                json:"id"`
	RoleID    uint `gorm:"uniqueIndex:idx_role_feature;not null"   json:"role_id"`
	FeatureID uint `gorm:"uniqueIndex:idx_role_feature;not null"   json:"feature_id"`
	CanCreate bool `gorm:"default:false" json:"can_create"`
	CanRead   bool `gorm:"default:false" json:"can_read"`
	CanUpdate bool `gorm:"default:false" json:"can_update"`
	CanDelete bool `gorm:"default:false" json:"can_delete"`
	CanPrint  bool `gorm:"default:false" json:"can_print"`
}

const (
	ProtectedRoleName    = "SuperAdmin"
	ProtectedFeatureName = "RBAC_management"
)
