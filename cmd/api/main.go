package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sixchat/sixchat-backend/config"
	"github.com/sixchat/sixchat-backend/internal/backend"
	"github.com/sixchat/sixchat-backend/internal/bootstrap"
	"github.com/sixchat/sixchat-backend/internal/chatclient"
	"github.com/sixchat/sixchat-backend/internal/logger"
	"github.com/sixchat/sixchat-backend/internal/sessions"
)

const serviceName = "sixchat-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("development", "info")
		l := logger.Get()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := bootstrap.OpenBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Backend.Driver).Msg("failed to open backend")
	}
	defer func() {
		if err := be.Close(); err != nil {
			log.Warn().Err(err).Msg("backend close failed")
		}
	}()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{Config: cfg.Redis})
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	// Hosted clients outlive requests but not the process.
	clientCtx, cancelClients := context.WithCancel(context.Background())
	defer cancelClients()

	hub := sessions.NewHub(clientCtx, be.Provider, sessions.NewStore(rdb, cfg.Session.TTL), func(ctx context.Context, auth backend.Auth) *chatclient.Client {
		return chatclient.New(ctx, chatclient.Config{
			Auth:           auth,
			Store:          be.Store,
			ReservedNumber: cfg.Chat.ReservedNumber,
		})
	})
	defer hub.Close()

	sweeper, err := sessions.NewSweeper(hub, cfg.Session.IdleTimeout, cfg.Session.SweepSchedule)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Session.SweepSchedule).Msg("invalid sweep schedule")
	}
	sweeper.Start()
	defer sweeper.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:           serviceName,
		Version:               cfg.App.Version,
		Driver:                be.Driver,
		AllowedOrigins:        cfg.Server.CORSAllowedOrigins,
		Hub:                   hub,
		Verifier:              be.Verifier,
		AuthAttemptsPerMinute: cfg.Session.AuthAttemptsPerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("driver", be.Driver).
			Str("env", cfg.App.Environment).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// Event streams only end when their clients close.
	cancelClients()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
