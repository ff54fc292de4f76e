package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/titanaprilian/authguard/internal/service"
)

type RBACHTTP struct {
	Svc *service.RBACService
}

func (h *RBACHTTP) ListRoles(c echo.Context) error {
	roles, total, err := h.Svc.Repo.ListRoles(c.Request().Context(), queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"items": roles,
	})
}

func (h *RBACHTTP) GetRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	role, err := h.Svc.Repo.FindRoleByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	perms, err := h.Svc.Repo.ListPermissionsByRole(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"role":        role,
		"permissions": perms,
	})
}

func (h *RBACHTTP) CreateRole(c echo.Context) error {
	var req struct {
		Name         string                    `json:"name"`
		Description  string                    `json:"description"`
		IsPrivileged bool                      `json:"is_privileged"`
		Permissions  []service.PermissionInput `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	role, err := h.Svc.CreateRole(c.Request().Context(), req.Name, req.Description, req.IsPrivileged, req.Permissions)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, role)
}

func (h *RBACHTTP) UpdateRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        *string                   `json:"name"`
		Description *string                   `json:"description"`
		Permissions []service.PermissionInput `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	role, err := h.Svc.UpdateRole(c.Request().Context(), id, req.Name, req.Description, req.Permissions)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RBACHTTP) DeleteRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteRole(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

func (h *RBACHTTP) ListFeatures(c echo.Context) error {
	features, total, err := h.Svc.Repo.ListFeatures(c.Request().Context(), queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total": total,
		"items": features,
	})
}

func (h *RBACHTTP) CreateFeature(c echo.Context) error {
	var req struct {
		Name               string                  `json:"name"`
		Description        string                  `json:"description"`
		DefaultPermissions service.PermissionInput `json:"default_permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	feature, err := h.Svc.CreateFeature(c.Request().Context(), req.Name, req.Description, req.DefaultPermissions)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, feature)
}

func (h *RBACHTTP) UpdateFeature(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	feature, err := h.Svc.UpdateFeature(c.Request().Context(), id, req.Name, req.Description)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, feature)
}

func (h *RBACHTTP) DeleteFeature(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteFeature(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
