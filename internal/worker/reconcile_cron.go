package worker

// reconcile_cron.go
// Background goroutine that periodically re-validates every recipe's lot pin
// and writes corrections back. Lots deplete outside this service (sales,
// waste, physical counts), so pins go stale even when nobody asks.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ReconcileCronConfig holds all dependencies for the cron goroutine.
type ReconcileCronConfig struct {
	Reconciler Reconciler
	Interval   time.Duration // <= 0 disables the cron
}

// StartReconcileCron launches a goroutine that runs one reconciliation pass
// per tick. It respects the context for graceful shutdown.
func StartReconcileCron(ctx context.Context, cfg ReconcileCronConfig) {
	if cfg.Interval <= 0 {
		log.Info().Msg("reconcile_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				runReconcile(ctx, cfg.Reconciler)
			}
		}
	}()
}

func runReconcile(ctx context.Context, rec Reconciler) {
	start := time.Now()
	resp, err := rec.Reconciliar(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconcile_cron: pass failed")
		return
	}
	if len(resp.Correcciones) == 0 {
		log.Debug().Int("revisadas", resp.Revisadas).Msg("reconcile_cron: no changes")
		return
	}
	log.Info().
		Int("revisadas", resp.Revisadas).
		Int("correcciones", len(resp.Correcciones)).
		Int("aplicadas", resp.Aplicadas()).
		Dur("duracion", time.Since(start)).
		Msg("reconcile_cron: pins corrected")
}
