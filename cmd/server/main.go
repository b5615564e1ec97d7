package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/storypoker/internal/common/clock"
	"github.com/KirkDiggler/storypoker/internal/common/uuid"
	"github.com/KirkDiggler/storypoker/internal/config"
	"github.com/KirkDiggler/storypoker/internal/handlers/web"
	sessionRepo "github.com/KirkDiggler/storypoker/internal/repositories/session"
	pokerService "github.com/KirkDiggler/storypoker/internal/services/poker"
)

func main() {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Pick the session store
	var repo sessionRepo.Repository
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})

		repo, err = sessionRepo.NewRedis(&sessionRepo.Config{
			RedisClient: redisClient,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create redis session repository")
		}

		logger.Info().Str("addr", cfg.RedisAddr).Msg("Using redis session store")
	} else {
		repo = sessionRepo.NewMemory()
		logger.Info().Msg("Using in-memory session store")
	}

	// Initialize the poker service
	pokerSvc, err := pokerService.New(&pokerService.Config{
		DefaultDeck:   cfg.DefaultDeck,
		SessionRepo:   repo,
		Clock:         &clock.DefaultClock{},
		UUIDGenerator: uuid.New(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create poker service")
	}

	// Initialize the web handler
	handler, err := web.New(&web.Config{
		PokerService: pokerSvc,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create web handler")
	}

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Routes(),
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("Listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Error shutting down server")
	}

	logger.Info().Msg("Server has been shut down")
}

func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "storypoker").Logger()
}
