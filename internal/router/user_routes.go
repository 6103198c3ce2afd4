package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/handler"
	"github.com/mediashelf/mediashelf/internal/middleware"
	"github.com/mediashelf/mediashelf/internal/repository"
)

// UserHandlers bundles the handlers mounted on the authenticated /v1
// group so RegisterUser doesn't take a dozen positional arguments.
type UserHandlers struct {
	Profile   *handler.ProfileHandler
	Watchlist *handler.WatchlistHandler
	Library   *handler.LibraryHandler
	Reviews   *handler.ReviewHandler
	Friends   *handler.FriendHandler
	Recs      *handler.RecommendHandler
	Lists     *handler.ListsHandler
	Search    *handler.SearchHandler
}

// RegisterUser registers every endpoint available to an authenticated
// user. All routes require a valid JWT and any of the known roles.
// The cache middleware is applied to the read-heavy search routes only;
// mutating handlers invalidate it through the CacheInvalidator.
func RegisterUser(e *echo.Echo, h UserHandlers, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleUser, repository.RoleAdmin, repository.RoleSuperAdmin),
	)

	// ---- Profile ----
	g.GET("/profile", h.Profile.GetMe)
	g.PATCH("/profile", h.Profile.UpdateMe)

	// ---- Watchlist (movies and TV) ----
	g.POST("/watchlist", h.Watchlist.Add)
	g.GET("/watchlist", h.Watchlist.List)
	g.PATCH("/watchlist/:id", h.Watchlist.Update)
	g.POST("/watchlist/:id/toggle", h.Watchlist.ToggleWatched)
	g.DELETE("/watchlist/:id", h.Watchlist.Delete)

	// ---- Library (books, games, music) ----
	g.POST("/library", h.Library.Add)
	g.GET("/library", h.Library.List)
	g.POST("/library/:id/status", h.Library.SetStatus)
	g.PATCH("/library/:id", h.Library.Update)
	g.DELETE("/library/:id", h.Library.Delete)

	// ---- Reviews ----
	g.POST("/reviews", h.Reviews.Create)
	g.GET("/reviews", h.Reviews.ListMine)
	g.PATCH("/reviews/:id", h.Reviews.Update)
	g.DELETE("/reviews/:id", h.Reviews.Delete)

	// ---- Friends ----
	g.POST("/friends/requests", h.Friends.Send)
	g.GET("/friends/requests/incoming", h.Friends.Incoming)
	g.GET("/friends/requests/outgoing", h.Friends.Outgoing)
	g.POST("/friends/requests/:id/respond", h.Friends.Respond)
	g.GET("/friends", h.Friends.List)
	g.DELETE("/friends/:id", h.Friends.Remove)

	// ---- Recommendations ----
	g.POST("/recommendations", h.Recs.Send)
	g.POST("/recommendations/:id/respond", h.Recs.Respond)
	g.GET("/recommendations/inbox", h.Recs.Inbox)
	g.GET("/recommendations/outbox", h.Recs.Outbox)

	// ---- Lists ----
	g.POST("/lists", h.Lists.Create)
	g.GET("/lists", h.Lists.Mine)
	g.GET("/lists/:id", h.Lists.Get)
	g.PATCH("/lists/:id", h.Lists.Update)
	g.DELETE("/lists/:id", h.Lists.Delete)
	g.POST("/lists/:id/members", h.Lists.AddMember)
	g.DELETE("/lists/:id/members/:userID", h.Lists.RemoveMember)
	g.POST("/lists/:id/items", h.Lists.AddItem)
	g.DELETE("/lists/:id/items/:itemID", h.Lists.RemoveItem)

	// ---- Metadata search ----
	g.GET("/search/media", h.Search.Search, cache)
	g.GET("/media/:type/:external_id", h.Search.Details, cache)
	g.GET("/media/ratings/:imdb_id", h.Search.Ratings, cache)
}
