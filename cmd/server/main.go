package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"    // Load .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/filmstack/movie-review-api/internal/config"
	"github.com/filmstack/movie-review-api/internal/database"
	"github.com/filmstack/movie-review-api/internal/handler"
	"github.com/filmstack/movie-review-api/internal/middleware"
	"github.com/filmstack/movie-review-api/internal/queue"
	"github.com/filmstack/movie-review-api/internal/repository"
	"github.com/filmstack/movie-review-api/internal/router"
	"github.com/filmstack/movie-review-api/internal/seed"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	perms := repository.NewPermissionRepo(db)
	movies := repository.NewMovieRepo(db)
	reviews := repository.NewReviewRepo(db)

	seeder := &seed.Seeder{
		Users:       users,
		Roles:       roles,
		Permissions: perms,
		Movies:      movies,
		BcryptCost:  cfg.BcryptCost,
		MoviePath:   cfg.MovieSeed,
	}
	if err := seeder.Run(ctx); err != nil {
		log.Fatalf("seed: %v", err)
	}

	// Redis is optional: without it permission sets are read from the
	// database on every request and caching/rate limiting are disabled.
	rdb := config.NewRedisClient()
	authz := middleware.NewPermissions(users, rdb, config.PermissionCacheTTL())

	// Background consumer that records created reviews to logs/activity.log.
	// It maintains its own reconnect loop, so a broker outage never takes
	// the API down.
	go func() {
		if err := queue.StartReviewConsumer(); err != nil {
			log.Printf("review-consumer stopped: %v", err)
		}
	}()

	h := router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users),
		Users:       handler.NewUserHandler(cfg, users, roles, authz),
		Roles:       handler.NewRoleHandler(roles, perms, authz),
		Permissions: handler.NewPermissionHandler(perms, authz),
		Movies:      handler.NewMovieHandler(movies),
		Reviews:     handler.NewReviewHandler(reviews, users, movies),
	}

	var rateMW, cacheMW echo.MiddlewareFunc
	if rdb != nil {
		if rlCfg := config.LoadRateLimitConfig(); rlCfg.Enabled {
			rateMW = middleware.RateLimit(rlCfg, rdb)
		}
		if cCfg := config.LoadCacheConfig(); cCfg.Enabled {
			cacheMW = middleware.ResponseCache(cCfg, rdb)
		}
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, h.Auth)
	router.RegisterPublic(e, h.Reviews, cacheMW)
	router.RegisterAPI(e, h, cfg.JWTSecret, authz, rateMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
