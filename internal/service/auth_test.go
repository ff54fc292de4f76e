package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titanaprilian/authguard/internal/apperr"
	"github.com/titanaprilian/authguard/internal/models"
)

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newAuthService(r)
	ctx := context.Background()

	role := seedRole(t, r, "User", false)
	seedUser(t, r, "alice@example.com", "password", role.ID, true)
	seedUser(t, r, "frozen@example.com", "password", role.ID, false)

	t.Run("success", func(t *testing.T) {
		session, err := svc.Login(ctx, "alice@example.com", "password")
		require.NoError(t, err)
		require.NotEmpty(t, session.AccessToken)
		require.NotEmpty(t, session.RefreshToken)

		claims, err := svc.Codec.ParseRefresh(session.RefreshToken)
		require.NoError(t, err)

		row, err := r.FindRefreshByID(ctx, claims.ID)
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, row.UserID)
		assert.False(t, row.Revoked)
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		_, err := svc.Login(ctx, "  ALICE@Example.COM ", "password")
		require.NoError(t, err)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, err1 := svc.Login(ctx, "alice@example.com", "wrong")
		_, err2 := svc.Login(ctx, "nobody@example.com", "password")
		assert.ErrorIs(t, err1, apperr.ErrInvalidCredentials)
		assert.ErrorIs(t, err2, apperr.ErrInvalidCredentials)
	})

	t.Run("disabled account", func(t *testing.T) {
		_, err := svc.Login(ctx, "frozen@example.com", "password")
		assert.ErrorIs(t, err, apperr.ErrAccountDisabled)
	})
}

func TestAuthService_Refresh_RotationIsOneShot(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newAuthService(r)
	ctx := context.Background()

	role := seedRole(t, r, "User", false)
	user := seedUser(t, r, "bob@example.com", "password", role.ID, true)

	session, err := svc.Login(ctx, "bob@example.com", "password")
	require.NoError(t, err)
	t0 := session.RefreshToken
	versionBefore := currentVersion(t, r, user.ID)

	// first redemption succeeds and revokes T0
	next, err := svc.Refresh(ctx, t0)
	require.NoError(t, err)
	require.NotEqual(t, t0, next.RefreshToken)

	oldClaims, err := svc.Codec.ParseRefresh(t0)
	require.NoError(t, err)
	oldRow, err := r.FindRefreshByID(ctx, oldClaims.ID)
	require.NoError(t, err)
	assert.True(t, oldRow.Revoked)

	// second redemption is reuse: InvalidToken plus a version bump
	_, err = svc.Refresh(ctx, t0)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	assert.Equal(t, versionBefore+1, currentVersion(t, r, user.ID))

	// the bump poisons the rotated-to token as well
	_, err = svc.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrTokenVersionMismatch)

	// and every access token issued against the old version
	_, err = svc.Me(ctx, user.ID, versionBefore)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAuthService_Refresh_Failures(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newAuthService(r)
	ctx := context.Background()

	role := seedRole(t, r, "User", false)
	seedUser(t, r, "carol@example.com", "password", role.ID, true)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	})

	t.Run("signed token without a row", func(t *testing.T) {
		raw, _, err := svc.Codec.SignRefresh(42, 0, "no-such-row")
		require.NoError(t, err)
		_, err = svc.Refresh(ctx, raw)
		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	})

	t.Run("disabled account", func(t *testing.T) {
		session, err := svc.Login(ctx, "carol@example.com", "password")
		require.NoError(t, err)

		require.NoError(t, r.DB.Model(&models.User{}).
			Where("email = ?", "carol@example.com").
			Update("is_active", false).Error)

		_, err = svc.Refresh(ctx, session.RefreshToken)
		assert.ErrorIs(t, err, apperr.ErrAccountDisabled)
	})
}

func TestAuthService_MultiDeviceIndependence(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newAuthService(r)
	ctx := context.Background()

	role := seedRole(t, r, "User", false)
	seedUser(t, r, "dave@example.com", "password", role.ID, true)

	deviceA, err := svc.Login(ctx, "dave@example.com", "password")
	require.NoError(t, err)
	deviceB, err := svc.Login(ctx, "dave@example.com", "password")
	require.NoError(t, err)
	require.NotEqual(t, deviceA.RefreshToken, deviceB.RefreshToken)

	// rotating A leaves B untouched
	_, err = svc.Refresh(ctx, deviceA.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, deviceB.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_LogoutAll(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newAuthService(r)
	ctx := context.Background()

	role := seedRole(t, r, "User", false)
	user := seedUser(t, r, "erin@example.com", "password", role.ID, true)
	seedUser(t, r, "mallory@example.com", "password", role.ID, true)

	deviceA, err := svc.Login(ctx, "erin@example.com", "password")
	require.NoError(t, err)
	deviceB, err := svc.Login(ctx, "erin@example.com", "password")
	require.NoError(t, err)

	t.Run("token of another user is rejected", func(t *testing.T) {
		other, err := svc.Login(ctx, "mallory@example.com", "password")
		require.NoError(t, err)
		err = svc.LogoutAll(ctx, user.ID, other.RefreshToken)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	require.NoError(t, svc.LogoutAll(ctx, user.ID, deviceA.RefreshToken))

	// every outstanding refresh token is dead, on every device
	_, err = svc.Refresh(ctx, deviceA.RefreshToken)
	require.Error(t, err)
	_, err = svc.Refresh(ctx, deviceB.RefreshToken)
	require.Error(t, err)

	t.Run("repeat call fails on the now-revoked token", func(t *testing.T) {
		err := svc.LogoutAll(ctx, user.ID, deviceA.RefreshToken)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("fresh login still works", func(t *testing.T) {
		session, err := svc.Login(ctx, "erin@example.com", "password")
		require.NoError(t, err)
		_, err = svc.Refresh(ctx, session.RefreshToken)
		require.NoError(t, err)
	})
}

func TestAuthService_Logout_NeverFails(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newAuthService(r)
	ctx := context.Background()

	role := seedRole(t, r, "User", false)
	seedUser(t, r, "frank@example.com", "password", role.ID, true)

	session, err := svc.Login(ctx, "frank@example.com", "password")
	require.NoError(t, err)

	// repeated and malformed logouts are all silent
	svc.Logout(ctx, session.RefreshToken)
	svc.Logout(ctx, session.RefreshToken)
	svc.Logout(ctx, "garbage")
	svc.Logout(ctx, "")

	claims, err := svc.Codec.ParseRefresh(session.RefreshToken)
	require.NoError(t, err)
	row, err := r.FindRefreshByID(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, row.Revoked)

	// a logged-out token cannot refresh anymore
	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestAuthService_Me(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newAuthService(r)
	ctx := context.Background()

	role := seedRole(t, r, "User", false)
	user := seedUser(t, r, "grace@example.com", "password", role.ID, true)

	got, err := svc.Me(ctx, user.ID, user.TokenVersion)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.Me(ctx, user.ID, user.TokenVersion+1)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Me(ctx, 9999, 0)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, r.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("is_active", false).Error)
	_, err = svc.Me(ctx, user.ID, user.TokenVersion)
	assert.ErrorIs(t, err, apperr.ErrAccountDisabled)
}

func TestAuthService_ChangePassword(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newAuthService(r)
	ctx := context.Background()

	role := seedRole(t, r, "User", false)
	user := seedUser(t, r, "heidi@example.com", "old-password", role.ID, true)
	versionBefore := currentVersion(t, r, user.ID)

	err := svc.ChangePassword(ctx, user.ID, "wrong", "new-password")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "old-password", "new-password"))
	assert.Equal(t, versionBefore+1, currentVersion(t, r, user.ID))

	_, err = svc.Login(ctx, "heidi@example.com", "old-password")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "heidi@example.com", "new-password")
	require.NoError(t, err)
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := newAuthService(r)
	ctx := context.Background()

	seedRole(t, r, "User", false)

	user, err := svc.Register(ctx, "Ivan@Example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "ivan@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "password", user.PasswordHash)

	_, err = svc.Register(ctx, "ivan@example.com", "password")
	assert.ErrorIs(t, err, apperr.ErrConflict)
}
