// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/handler"
	"github.com/mediashelf/mediashelf/internal/middleware"
	"github.com/mediashelf/mediashelf/internal/repository"
)

// RegisterRoutes registers routes that require no authentication:
// the health check and the public browse surface.
func RegisterRoutes(e *echo.Echo, reviews *handler.ReviewHandler, profiles *handler.ProfileHandler, lists *handler.ListsHandler) {
	e.GET("/healthz", handler.Health)

	// Guests can read reviews, public profiles and public lists.
	e.GET("/v1/media/:type/:external_id/reviews", reviews.ListByMedia)
	e.GET("/v1/users/:id/profile", profiles.GetPublic)
	e.GET("/v1/lists/:id/public", lists.Public)
}

// RegisterAuth registers the authentication endpoints. Register, login
// and the invite check sit behind the Redis token bucket so credential
// stuffing hits the limiter before it hits bcrypt.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)
	g.GET("/invites/check", a.CheckInvite)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(repository.RoleUser, repository.RoleAdmin, repository.RoleSuperAdmin))
	auth.GET("/me", a.Me)
}
