package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/titanaprilian/authguard/internal/middleware"
	"github.com/titanaprilian/authguard/internal/models"
	"github.com/titanaprilian/authguard/internal/service"
)

type Deps struct {
	Auth  *AuthHTTP
	Users *UserHTTP
	RBAC  *RBACHTTP
	Audit *AuditHTTP
	Gate  *middleware.Gate
}

// Register wires every route with its (feature, action) pair. The gate runs
// RequireAuth first (401 class), then the permission check (403 class).
func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", d.Auth.Register)
	e.POST("/login", d.Auth.Login)
	e.POST("/refresh", d.Auth.Refresh)
	e.POST("/logout", d.Auth.Logout)

	private := e.Group("")
	private.Use(d.Gate.RequireAuth)
	private.POST("/logout_all", d.Auth.LogoutAll)
	private.GET("/me", d.Auth.Me)
	private.POST("/me/password", d.Auth.ChangePassword)

	users := private.Group("/users")
	users.GET("", d.Users.List, d.Gate.RequirePermission("user_management", service.ActionRead))
	users.GET("/:id", d.Users.Get, d.Gate.RequirePermission("user_management", service.ActionRead))
	users.POST("", d.Users.Create, d.Gate.RequirePermission("user_management", service.ActionCreate))
	users.PATCH("/:id", d.Users.Update, d.Gate.RequirePermission("user_management", service.ActionUpdate))
	users.DELETE("/:id", d.Users.Delete, d.Gate.RequirePermission("user_management", service.ActionDelete))

	rbac := models.ProtectedFeatureName
	roles := private.Group("/roles")
	roles.GET("", d.RBAC.ListRoles, d.Gate.RequirePermission(rbac, service.ActionRead))
	roles.GET("/:id", d.RBAC.GetRole, d.Gate.RequirePermission(rbac, service.ActionRead))
	roles.POST("", d.RBAC.CreateRole, d.Gate.RequirePermission(rbac, service.ActionCreate))
	roles.PATCH("/:id", d.RBAC.UpdateRole, d.Gate.RequirePermission(rbac, service.ActionUpdate))
	roles.DELETE("/:id", d.RBAC.DeleteRole, d.Gate.RequirePermission(rbac, service.ActionDelete))

	features := private.Group("/features")
	features.GET("", d.RBAC.ListFeatures, d.Gate.RequirePermission(rbac, service.ActionRead))
	features.POST("", d.RBAC.CreateFeature, d.Gate.RequirePermission(rbac, service.ActionCreate))
	features.PATCH("/:id", d.RBAC.UpdateFeature, d.Gate.RequirePermission(rbac, service.ActionUpdate))
	features.DELETE("/:id", d.RBAC.DeleteFeature, d.Gate.RequirePermission(rbac, service.ActionDelete))

	private.GET("/audit/search", d.Audit.Search, d.Gate.RequirePermission(rbac, service.ActionRead))
}
