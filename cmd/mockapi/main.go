package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/broker"
	"github.com/warden-io/warden-panel/config"
	"github.com/warden-io/warden-panel/database"
	"github.com/warden-io/warden-panel/logger"
	"github.com/warden-io/warden-panel/mockapi"
	"github.com/warden-io/warden-panel/routes"
	"github.com/warden-io/warden-panel/services"
)

func main() {
	cfg, err := config.LoadFile(os.Getenv("WARDEN_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.New().WithLevel(cfg.LogLevel).Console(cfg.IsDevelopment()).FromBuffer(os.Stdout).Install()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Setup(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := mockapi.NewHub()
	go hub.Run(ctx)

	// Operation events are mirrored to NATS when it is reachable.
	var producer broker.Producer = broker.NoopProducer{}
	if natsProducer, err := broker.InitProducer(cfg.NatsURL); err != nil {
		log.Warn().Err(err).Msg("nats unavailable, operation events are only sent over websocket")
	} else {
		producer = natsProducer
	}
	defer producer.Close()

	operations := mockapi.NewOperationStore(db)
	processor := mockapi.NewProcessor(operations, services.NewOperationRegistry(), hub, producer, cfg.CommandDelay)
	defer processor.Close()

	router := routes.NewRouter(routes.Dependencies{
		DB:             db,
		Auth:           mockapi.NewAuthService(cfg.JWTSecret, cfg.JWTExpirationHours),
		Processor:      processor,
		Operations:     operations,
		Hub:            hub,
		JWTSecret:      []byte(cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.AppPort).Msg("mock API server is running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
