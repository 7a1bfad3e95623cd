package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/a1gato/olimpiad/internal/events"
	"github.com/a1gato/olimpiad/internal/handler"
	"github.com/a1gato/olimpiad/internal/repository"
	"github.com/a1gato/olimpiad/internal/router"
	"github.com/a1gato/olimpiad/internal/service"
	"github.com/a1gato/olimpiad/pkg/cache"
	"github.com/a1gato/olimpiad/pkg/config"
	"github.com/a1gato/olimpiad/pkg/database"
	"github.com/a1gato/olimpiad/pkg/logger"
	corsmiddleware "github.com/a1gato/olimpiad/pkg/middleware/cors"
	reqidmiddleware "github.com/a1gato/olimpiad/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and cross-instance events disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	roomRepo := repository.NewRoomRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	var feed *events.Feed
	if cfg.Events.Enabled {
		feed = events.NewFeed(redisClient, cfg.Events.Channel, logr)
	} else {
		feed = events.NewFeed(nil, cfg.Events.Channel, logr)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		LoginDomain:       cfg.Auth.LoginDomain,
	})
	roomSvc := service.NewRoomService(roomRepo, studentRepo, feed, cacheSvc, validate, logr, service.OccupancyThresholds{
		WarningPct:  cfg.Occupancy.WarningPct,
		CriticalPct: cfg.Occupancy.CriticalPct,
	})
	registrationSvc := service.NewRegistrationService(roomRepo, studentRepo, feed, cacheSvc, metricsSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, feed, cacheSvc, logr)
	scoreSvc := service.NewScoreService(studentRepo, feed, cacheSvc, logr)
	leaderboardSvc := service.NewLeaderboardService(studentRepo, cacheSvc, logr, cfg.Leaderboard.Limit)
	dashboardSvc := service.NewDashboardService(roomSvc, studentRepo, cacheSvc, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	router.Register(r, cfg.APIPrefix, router.Deps{
		Auth:         handler.NewAuthHandler(authSvc),
		Rooms:        handler.NewRoomHandler(roomSvc),
		Registration: handler.NewRegistrationHandler(registrationSvc),
		Students:     handler.NewStudentHandler(studentSvc),
		Scores:       handler.NewScoreHandler(scoreSvc),
		Leaderboard:  handler.NewLeaderboardHandler(leaderboardSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc),
		Events:       handler.NewEventsHandler(feed, metricsSvc),
		AuthService:  authSvc,
		Metrics:      metricsSvc,
		Ready:        db.Ping,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Events.Enabled && redisClient != nil {
		go feed.Run(ctx)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
