package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/titanaprilian/authguard/internal/apperr"
	"github.com/titanaprilian/authguard/internal/events"
	"github.com/titanaprilian/authguard/internal/models"
	"github.com/titanaprilian/authguard/internal/repo"
	"github.com/titanaprilian/authguard/internal/search"
	pkg_hash "github.com/titanaprilian/authguard/pkg/hash"
	"github.com/titanaprilian/authguard/pkg/logging"
	"github.com/titanaprilian/authguard/pkg/tokens"
)

// AuthService owns the session lifecycle: login, refresh-with-rotation,
// logout, logout-all, and the account-state check behind every protected
// request. It is stateless; all session state lives in the store.
type AuthService struct {
	Repo        *repo.GormRepo
	Codec       *tokens.Codec
	Producer    *events.Producer
	Audit       *search.AuditIndexer
	DefaultRole string
}

type Session struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         *models.User
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) emit(ctx context.Context, e events.Event) {
	s.Producer.Emit(ctx, e)
	s.Audit.Emit(ctx, e)
}

// issueSession creates one RefreshToken row and mints the matching
// access/refresh pair against the user's current token version.
func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	jti := tokens.NewJTI()

	refreshToken, refreshExp, err := s.Codec.SignRefresh(user.ID, user.TokenVersion, jti)
	if err != nil {
		return nil, err
	}
	accessToken, accessExp, err := s.Codec.SignAccess(user.ID, user.TokenVersion)
	if err != nil {
		return nil, err
	}

	row := models.RefreshToken{
		ID:        jti,
		UserID:    user.ID,
		ExpiresAt: refreshExp.Unix(),
	}
	if err := s.Repo.CreateRefresh(ctx, &row); err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

// Register creates a user with the default role. Supplement to the session
// core; admin-driven creation lives in UserService.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	role, err := s.Repo.FindRoleByName(ctx, s.DefaultRole)
	if err != nil {
		l.Error("register_failed", "reason", "default role missing", "error", err)
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        NormalizeEmail(email),
		PasswordHash: pwHash,
		IsActive:     true,
		RoleID:       role.ID,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		return nil, err
	}

	s.emit(ctx, events.Event{Type: events.TypeRegistered, UserID: user.ID, Email: user.Email})
	return &user, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperr.ErrAccountDisabled
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("login_failed", "user_id", user.ID, "error", err)
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	s.emit(ctx, events.Event{Type: events.TypeLogin, UserID: user.ID, Email: user.Email})
	return session, nil
}

// Refresh redeems a refresh token for a new pair, revoking the old row in
// the same transaction. Redemption of an already-revoked token is treated as
// theft: the user's token version is bumped, killing every outstanding
// access token, and the caller still only sees ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Codec.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperr.ErrInvalidToken
	}

	row, err := s.Repo.FindRefreshByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidToken
		}
		return nil, err
	}

	if row.Revoked {
		l.Warn("refresh_reuse_detected", "user_id", row.UserID, "jti", row.ID)
		if err := s.Repo.BumpTokenVersion(ctx, row.UserID); err != nil {
			return nil, err
		}
		s.emit(ctx, events.Event{Type: events.TypeReuseDetected, UserID: row.UserID, Detail: row.ID})
		return nil, apperr.ErrInvalidToken
	}
	if row.ExpiresAt < time.Now().Unix() {
		return nil, apperr.ErrInvalidToken
	}

	user, err := s.Repo.FindUserByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.ErrAccountDisabled
	}
	if claims.TokenVersion != user.TokenVersion {
		return nil, apperr.ErrTokenVersionMismatch
	}

	jti := tokens.NewJTI()
	newRefresh, refreshExp, err := s.Codec.SignRefresh(user.ID, user.TokenVersion, jti)
	if err != nil {
		return nil, err
	}
	newAccess, accessExp, err := s.Codec.SignAccess(user.ID, user.TokenVersion)
	if err != nil {
		return nil, err
	}

	next := models.RefreshToken{
		ID:        jti,
		UserID:    user.ID,
		ExpiresAt: refreshExp.Unix(),
	}
	if err := s.Repo.RotateRefresh(ctx, row.ID, &next); err != nil {
		// Lost the race to a concurrent redemption of the same token.
		return nil, err
	}

	s.emit(ctx, events.Event{Type: events.TypeTokenRefreshed, UserID: user.ID})
	return &Session{
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, nil
}

// Logout revokes the presented token's row when it can, and reports success
// no matter what, so clients can always clear their own state.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := s.Codec.ParseRefresh(refreshToken)
	if err != nil {
		l.Debug("logout_ignored", "reason", "unparseable token")
		return
	}
	if err := s.Repo.RevokeRefresh(ctx, claims.ID); err != nil {
		l.Debug("logout_ignored", "reason", "revoke failed", "error", err)
		return
	}
	if userID, err := claims.UserID(); err == nil {
		s.emit(ctx, events.Event{Type: events.TypeLogout, UserID: userID})
	}
}

// LogoutAll revokes every live refresh token of the user and bumps the
// token version once, killing all sessions on all devices. The initiating
// refresh token must be live, owned by userID, and version-current.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout_all", "user_id", userID)

	claims, err := s.Codec.ParseRefresh(refreshToken)
	if err != nil {
		return apperr.ErrUnauthorized
	}
	row, err := s.Repo.FindRefreshByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrUnauthorized
		}
		return err
	}
	if row.UserID != userID || row.Revoked {
		return apperr.ErrUnauthorized
	}

	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrUnauthorized
		}
		return err
	}
	if !user.IsActive {
		return apperr.ErrAccountDisabled
	}
	if claims.TokenVersion != user.TokenVersion {
		return apperr.ErrTokenVersionMismatch
	}

	if err := s.Repo.RevokeAllAndBumpVersion(ctx, userID); err != nil {
		return err
	}

	l.Info("logout_all_successful")
	s.emit(ctx, events.Event{Type: events.TypeLogoutAll, UserID: userID, Email: user.Email})
	return nil
}

// Me is the account-state check run on every protected request: the user
// must still exist, the presented token version must be current, and the
// account must be active.
func (s *AuthService) Me(ctx context.Context, userID uint, presentedVersion int) (*models.User, error) {
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	if user.TokenVersion != presentedVersion {
		return nil, apperr.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, apperr.ErrAccountDisabled
	}
	return user, nil
}

// ChangePassword verifies the old password, swaps the hash, and advances the
// token version so every outstanding token dies with the old password.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, oldPassword) {
		return apperr.ErrInvalidCredentials
	}

	newHash, err := pkg_hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePasswordAndBumpVersion(ctx, userID, newHash); err != nil {
		return err
	}

	s.emit(ctx, events.Event{Type: events.TypePasswordChanged, UserID: userID, Email: user.Email})
	return nil
}
