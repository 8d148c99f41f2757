package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"freelance/internal/cache"
	"freelance/internal/config"
	"freelance/internal/database"
	"freelance/internal/log"
	"freelance/internal/queue"
	"freelance/internal/repository"
	"freelance/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Log.Level).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	processor := tasks.NewProcessor(repository.NewRefreshTokenRepository(dbPool), logger)
	consumer := queue.NewConsumer(client, queue.ConsumerConfig{
		Stream:        cfg.Jobs.Stream,
		Group:         cfg.Worker.Group,
		Consumer:      cfg.Worker.Consumer,
		ClaimInterval: cfg.Worker.ClaimInterval,
		MaxDeliveries: cfg.Worker.MaxDeliveries,
	}, logger, processor)

	if err := consumer.EnsureGroup(ctx); err != nil {
		logger.Fatal().Err(err).Msg("create consumer group failed")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("consumer did not stop in time")
	}
}
