// notifyd receives server-initiated payment notifications, verifies their
// signatures, deduplicates redeliveries and answers with signed
// acknowledgements.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kurbar/trustly-go/config"
	httpHandler "github.com/kurbar/trustly-go/internal/adapter/http/handler"
	pgStorage "github.com/kurbar/trustly-go/internal/adapter/storage/postgres"
	redisStorage "github.com/kurbar/trustly-go/internal/adapter/storage/redis"
	"github.com/kurbar/trustly-go/internal/core/ports"
	"github.com/kurbar/trustly-go/internal/service"
	"github.com/kurbar/trustly-go/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Int("port", cfg.Server.Port).
		Msg("Starting notification daemon")

	// Key material loads before any network or database activity; a bad
	// key file must fail startup outright.
	sigSvc, err := service.NewRSASignatureService(cfg.Keys.BaseDir, cfg.Keys.PrivateKey, cfg.Keys.PublicKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load key material")
	}

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	notificationRepo := pgStorage.NewNotificationRepo(pool)
	duplicateCache := redisStorage.NewDuplicateCache(rdb)

	notificationSvc := service.NewNotificationService(notificationRepo, duplicateCache, sigSvc, log)

	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		NotificationSvc: notificationSvc,
		HealthCheckers:  []ports.HealthChecker{pgHealth, redisHealth},
		Logger:          log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}
