package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/handler"
	"github.com/mediashelf/mediashelf/internal/middleware"
	"github.com/mediashelf/mediashelf/internal/repository"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin. All
// routes require a valid JWT and the ADMIN or SUPER_ADMIN role; the
// SUPER_ADMIN-only rules for role changes live in the handler.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin, repository.RoleSuperAdmin),
	)

	g.GET("/users", a.ListUsers)
	g.POST("/users/:id/role", a.SetRole)
	g.POST("/invites", a.MintInvite)
	g.GET("/invites", a.ListInvites)
	g.GET("/stats", a.Stats)
	g.POST("/media-cache/purge", a.PurgeMediaCache)
}
