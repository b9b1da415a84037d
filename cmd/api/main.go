package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/abdulahadd002/cheezy-heaven/internal/api"
	"github.com/abdulahadd002/cheezy-heaven/internal/auth"
	"github.com/abdulahadd002/cheezy-heaven/internal/config"
	"github.com/abdulahadd002/cheezy-heaven/internal/database"
	"github.com/abdulahadd002/cheezy-heaven/internal/watch"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	logger.Info().Msg("connected to database")

	listener, err := database.NewListener(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open notification listener")
	}
	defer listener.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := watch.NewHub(&watch.DBFetcher{DB: db}, logger)
	go hub.Run(ctx)
	go func() {
		if err := watch.RunListener(ctx, listener, hub); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("notification listener stopped")
		}
	}()

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewServer(db, hub, tokens, logger).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
