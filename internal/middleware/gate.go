// Package middleware is the request gate: it verifies the bearer token,
// re-checks account state against the live user record, and evaluates the
// route's declared (feature, action) pair before any handler runs.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/titanaprilian/authguard/internal/apperr"
	"github.com/titanaprilian/authguard/internal/service"
	"github.com/titanaprilian/authguard/pkg/tokens"
)

const (
	CtxUserID       = "user_id"
	CtxTokenVersion = "token_version"
)

type Gate struct {
	Codec *tokens.Codec
	Auth  *service.AuthService
	RBAC  *service.RBACService
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth is the 401 half of the gate: signature, expiry and the live
// account-state/version check.
func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := bearerToken(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := g.Codec.ParseAccess(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
		}

		if _, err := g.Auth.Me(c.Request().Context(), userID, claims.TokenVersion); err != nil {
			if errors.Is(err, apperr.ErrAccountDisabled) {
				return echo.NewHTTPError(http.StatusForbidden, "account disabled")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxTokenVersion, claims.TokenVersion)
		return next(c)
	}
}

// RequirePermission is the 403 half: the authenticated user's role must hold
// the action flag on the feature. Runs after RequireAuth.
func (g *Gate) RequirePermission(feature string, action service.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(CtxUserID).(uint)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			if err := g.RBAC.Check(c.Request().Context(), userID, feature, action); err != nil {
				if errors.Is(err, apperr.ErrPermissionDenied) {
					return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
				}
				if errors.Is(err, apperr.ErrUnauthorized) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
				}
				return err
			}
			return next(c)
		}
	}
}
