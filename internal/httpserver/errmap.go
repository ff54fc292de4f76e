package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/titanaprilian/authguard/internal/apperr"
)

// httpError maps each sentinel from apperr to exactly one status code so
// handlers never build statuses from error strings.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, apperr.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	case errors.Is(err, apperr.ErrTokenVersionMismatch):
		return echo.NewHTTPError(http.StatusUnauthorized, "token is stale, re-authenticate")
	case errors.Is(err, apperr.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperr.ErrAccountDisabled):
		return echo.NewHTTPError(http.StatusForbidden, "account disabled")
	case errors.Is(err, apperr.ErrPermissionDenied):
		return echo.NewHTTPError(http.StatusForbidden, "permission denied")
	case errors.Is(err, apperr.ErrProtectedEntity):
		return echo.NewHTTPError(http.StatusForbidden, "protected entity")
	case errors.Is(err, apperr.ErrInvalidReference):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "referenced entity does not exist")
	case errors.Is(err, apperr.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "already exists")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
