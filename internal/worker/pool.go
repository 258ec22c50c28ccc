package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"comandas/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReconciliacion = "jobs:reconciliacion"
	JobReconciliacion   = "reconciliacion"

	// MaxJobAttempts is how many times a job runs before it goes to the DLQ.
	MaxJobAttempts = 3

	// pendingKey coalesces bursts of enqueue requests into a single job.
	pendingKey = "jobs:reconciliacion:pendiente"
	pendingTTL = 2 * time.Minute
)

// ErrSinCola is returned when no Redis client is configured.
var ErrSinCola = errors.New("cola de trabajos no configurada")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// ReconciliacionPayload explains why a reconciliation was requested.
type ReconciliacionPayload struct {
	Motivo     string `json:"motivo"`
	Referencia string `json:"referencia,omitempty"`
}

// Reconciler runs a reconcile-and-apply pass. service.CosteoService
// satisfies it.
type Reconciler interface {
	Reconciliar(ctx context.Context) (*dto.ReconciliacionResponse, error)
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReconciliacion asks the pool for a reconciliation pass. While one is
// already queued, further requests are dropped: a single pass covers them all.
func (d *Dispatcher) EnqueueReconciliacion(ctx context.Context, p ReconciliacionPayload) error {
	if d == nil || d.rdb == nil {
		return ErrSinCola
	}
	fresh, err := d.rdb.SetNX(ctx, pendingKey, p.Motivo, pendingTTL).Result()
	if err != nil {
		return err
	}
	if !fresh {
		log.Debug().Str("motivo", p.Motivo).Msg("reconciliacion ya encolada")
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return d.push(ctx, QueueReconciliacion, Job{Type: JobReconciliacion, Payload: data})
}

func (d *Dispatcher) push(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the queue.
// Each goroutine blocks on BRPOP and uses no CPU while idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, rec Reconciler, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, rec, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, rec Reconciler, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s, then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueReconciliacion).Result()
			if err != nil {
				if !isIdlePop(ctx, err) {
					// Redis is unreachable and BRPOP fails at once: pause
					// instead of spinning.
					log.Warn().Err(err).Int("worker", id).Msg("worker: cola no disponible")
					sleepCtx(ctx, popErrorPause)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, rec, result[0], result[1])
		}
	}
}

// popErrorPause is how long a worker waits after a failed BRPOP.
const popErrorPause = 2 * time.Second

// isIdlePop reports whether a BRPOP error is the normal empty-queue timeout
// or shutdown rather than a connection failure.
func isIdlePop(ctx context.Context, err error) bool {
	return errors.Is(err, redis.Nil) || ctx.Err() != nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func processJob(ctx context.Context, rdb *redis.Client, rec Reconciler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "desconocido", json.RawMessage(fmt.Sprintf("%q", raw)), "payload ilegible: "+err.Error(), 0)
		return
	}
	if job.Type == JobReconciliacion {
		// Requests arriving from now on must queue a new pass.
		_ = rdb.Del(ctx, pendingKey).Err()
	}

	err := handleJob(ctx, rec, job)
	if err == nil {
		return
	}

	job.Attempts++
	if job.Attempts >= MaxJobAttempts {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}

	wait := computeRetryBackoff(job.Attempts)
	log.Warn().Err(err).
		Str("type", job.Type).
		Int("attempts", job.Attempts).
		Dur("retry_in", wait).
		Msg("job failed, scheduling retry")

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	encoded, mErr := json.Marshal(job)
	if mErr != nil {
		return
	}
	if pErr := rdb.LPush(ctx, queue, encoded).Err(); pErr != nil {
		log.Error().Err(pErr).Str("queue", queue).Msg("failed to requeue job")
	}
}

// handleJob dispatches one decoded job to its handler.
func handleJob(ctx context.Context, rec Reconciler, job Job) error {
	switch job.Type {
	case JobReconciliacion:
		var p ReconciliacionPayload
		if len(job.Payload) > 0 {
			if err := json.Unmarshal(job.Payload, &p); err != nil {
				return fmt.Errorf("payload de reconciliacion invalido: %w", err)
			}
		}
		resp, err := rec.Reconciliar(ctx)
		if err != nil {
			return err
		}
		log.Info().
			Str("job", job.Type).
			Str("motivo", p.Motivo).
			Int("revisadas", resp.Revisadas).
			Int("correcciones", len(resp.Correcciones)).
			Int("aplicadas", resp.Aplicadas()).
			Msg("reconciliacion completada")
		return nil
	default:
		return fmt.Errorf("tipo de trabajo desconocido %q", job.Type)
	}
}

// computeRetryBackoff doubles from 2s: 2s, 4s, 8s... capped at one minute.
func computeRetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := 2 * time.Second << (attempt - 1)
	if d > time.Minute || d <= 0 {
		return time.Minute
	}
	return d
}
