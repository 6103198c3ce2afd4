package main

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/config"
	"github.com/mediashelf/mediashelf/internal/database"
	"github.com/mediashelf/mediashelf/internal/handler"
	"github.com/mediashelf/mediashelf/internal/limiter"
	"github.com/mediashelf/mediashelf/internal/metadata"
	"github.com/mediashelf/mediashelf/internal/middleware"
	"github.com/mediashelf/mediashelf/internal/queue"
	"github.com/mediashelf/mediashelf/internal/repository"
	"github.com/mediashelf/mediashelf/internal/router"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the rate limiter and response cache
	// become no-ops and the API still works.
	rdb := config.NewRedisClient()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	invites := repository.NewInviteRepo(db)
	watchlist := repository.NewWatchlistRepo(db)
	library := repository.NewLibraryRepo(db)
	reviews := repository.NewReviewRepo(db)
	friends := repository.NewFriendRepo(db)
	recs := repository.NewRecommendationRepo(db)
	lists := repository.NewListRepo(db)
	mediaCache := repository.NewMediaCacheRepo(db)
	stats := repository.NewStatsRepo(db)

	// Middleware built from env config.
	cacheCfg := config.LoadCacheConfig()
	respCache := middleware.NewRedisCache(cacheCfg, rdb)
	inv := middleware.NewCacheInvalidator(cacheCfg, rdb)
	authLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	attempts := limiter.NewAttemptLimiter(config.LoadAuthLimitConfig())
	defer attempts.Close()

	meta := metadata.NewService(cfg, mediaCache)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens, invites, attempts)
	profileH := handler.NewProfileHandler(users, reviews)
	watchlistH := handler.NewWatchlistHandler(watchlist, inv)
	libraryH := handler.NewLibraryHandler(library, inv)
	reviewH := handler.NewReviewHandler(reviews, inv)
	friendH := handler.NewFriendHandler(friends, users)
	recH := handler.NewRecommendHandler(recs, friends, users)
	listsH := handler.NewListsHandler(lists, users, inv)
	searchH := handler.NewSearchHandler(meta)
	adminH := handler.NewAdminHandler(stats, users, invites, mediaCache)

	e := echo.New()
	router.RegisterRoutes(e, reviewH, profileH, listsH)
	router.RegisterAuth(e, authH, cfg.JWTSecret, authLimit)
	router.RegisterUser(e, router.UserHandlers{
		Profile:   profileH,
		Watchlist: watchlistH,
		Library:   libraryH,
		Reviews:   reviewH,
		Friends:   friendH,
		Recs:      recH,
		Lists:     listsH,
		Search:    searchH,
	}, cfg.JWTSecret, respCache)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// The notification consumer reconnects on its own; run it for the
	// lifetime of the process.
	go func() {
		if err := queue.StartRecommendationConsumer(); err != nil {
			log.Printf("recommendation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
