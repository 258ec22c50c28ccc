package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comandas/internal/config"
	"comandas/internal/infra"
	"comandas/internal/router"
	"comandas/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Redis backs the costing cache and the job queue. Without it both are
	// skipped and the reconcile cron alone keeps pins consistent.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
	} else {
		log.Warn().Msg("REDIS_URL empty: cache and job queue disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := worker.NewDispatcher(rdb)
	svcs, err := router.NewServices(cfg, db, rdb, dispatcher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build services")
	}

	// Queue consumers and the periodic pass share CosteoService.Reconciliar.
	if rdb != nil {
		worker.StartWorkerPool(ctx, rdb, svcs.Costeo, cfg.WorkerPoolSize)
	}
	worker.StartReconcileCron(ctx, worker.ReconcileCronConfig{
		Reconciler: svcs.Costeo,
		Interval:   cfg.ReconcileInterval,
	})

	r := router.New(ctx, cfg, db, rdb, svcs)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("comandas costing service listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel() // stop workers and cron first; in-flight jobs finish their current pass
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
