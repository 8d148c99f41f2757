package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"freelance/internal/cache"
	"freelance/internal/config"
	"freelance/internal/database"
	"freelance/internal/handlers"
	"freelance/internal/jobs"
	"freelance/internal/log"
	"freelance/internal/queue"
	"freelance/internal/repository"
	"freelance/internal/security"
	"freelance/internal/server"
	"freelance/internal/service"
	"freelance/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Log.Level)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if cfg.Postgres.Migrate {
		if err := database.Migrate(ctx, dbPool); err != nil {
			logger.Fatal().Err(err).Msg("schema migration failed")
		}
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	checks := []handlers.HealthCheck{
		{Name: "database", Ping: dbPool.Ping},
		{Name: "cache", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	var avatars service.AvatarStore
	if cfg.Storage.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure avatar bucket failed")
		}
		avatars = objectStore
		checks = append(checks, handlers.HealthCheck{Name: "storage", Ping: objectStore.Ping})
	}

	users := repository.NewUserRepository(dbPool)
	refreshTokens := repository.NewRefreshTokenRepository(dbPool)

	hasher := security.NewPasswordHasher(cfg.Security.PasswordHasher, cfg.Security.BcryptCost)
	issuer := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.AccessTTL, cfg.Security.RefreshTTL)
	verifier := security.NewTokenVerifier(cfg.Security.JWTSecret)

	userService := service.NewUserService(users, hasher, avatars, cfg.Storage.MaxAvatarSize, logger)
	if err := userService.EnsureAdmins(ctx, cfg.Security.AdminUsers); err != nil {
		logger.Error().Err(err).Msg("promote admin users failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg.Environment, handlers.Services{
		Auth:     service.NewAuthService(users, refreshTokens, hasher, issuer, verifier, logger),
		Users:    userService,
		Catalog:  service.NewCatalogService(repository.NewCatalogRepository(dbPool)),
		Projects: service.NewProjectService(repository.NewProjectRepository(dbPool)),
		Offers:   service.NewOfferService(repository.NewOfferRepository(dbPool)),
		Reviews:  service.NewReviewService(repository.NewReviewRepository(dbPool)),
	}, checks...)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(queue.NewProducer(redisClient, cfg.Jobs.Stream), cfg.Jobs.PurgeSchedule, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
			scheduler = nil
		}
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
