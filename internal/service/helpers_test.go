package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/titanaprilian/authguard/internal/models"
	"github.com/titanaprilian/authguard/internal/repo"
	pkg_hash "github.com/titanaprilian/authguard/pkg/hash"
	"github.com/titanaprilian/authguard/pkg/tokens"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection, or every pooled conn gets its own :memory: database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Role{},
		&models.Feature{},
		&models.RoleFeature{},
	))
	return &repo.GormRepo{DB: db}
}

func newTestCodec() *tokens.Codec {
	return &tokens.Codec{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
}

func newAuthService(r *repo.GormRepo) *AuthService {
	return &AuthService{
		Repo:        r,
		Codec:       newTestCodec(),
		DefaultRole: "User",
	}
}

func seedRole(t *testing.T, r *repo.GormRepo, name string, privileged bool) *models.Role {
	t.Helper()
	role := models.Role{Name: name, IsPrivileged: privileged}
	require.NoError(t, r.DB.Create(&role).Error)
	return &role
}

func seedFeature(t *testing.T, r *repo.GormRepo, name string) *models.Feature {
	t.Helper()
	feature := models.Feature{Name: name}
	require.NoError(t, r.DB.Create(&feature).Error)
	return &feature
}

func seedPermission(t *testing.T, r *repo.GormRepo, roleID, featureID uint, flags models.RoleFeature) {
	t.Helper()
	flags.RoleID = roleID
	flags.FeatureID = featureID
	require.NoError(t, r.DB.Create(&flags).Error)
}

func seedUser(t *testing.T, r *repo.GormRepo, email, password string, roleID uint, active bool) *models.User {
	t.Helper()
	pwHash, err := pkg_hash.HashPassword(password)
	require.NoError(t, err)
	user := models.User{
		Email:        email,
		PasswordHash: pwHash,
		IsActive:     active,
		RoleID:       roleID,
	}
	require.NoError(t, r.DB.Create(&user).Error)
	return &user
}

func currentVersion(t *testing.T, r *repo.GormRepo, userID uint) int {
	t.Helper()
	var user models.User
	require.NoError(t, r.DB.First(&user, userID).Error)
	return user.TokenVersion
}
