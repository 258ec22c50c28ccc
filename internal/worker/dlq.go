package worker

// dlq.go: Dead Letter Queue
// Reconciliation jobs that exceed MaxJobAttempts land in dlq:{queue}, newest
// first. Nothing consumes them automatically: the cron repairs the pins and
// admins read the entries through GET /v1/reconciliacion/fallidas.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
	Attempts      int             `json:"attempts"`
}

func newDLQEntry(queue, jobType string, payload json.RawMessage, reason string, attempts int, now time.Time) DLQEntry {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      now.UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}
}

// SendToDLQ pushes a failed job to the dead letter queue for manual inspection.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := newDLQEntry(queue, jobType, payload, reason, attempts, time.Now())

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// ListDLQ returns up to limit entries, newest first. Entries that no longer
// decode are skipped and logged.
func ListDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int64) ([]DLQEntry, error) {
	if rdb == nil {
		return []DLQEntry{}, nil
	}
	if limit < 1 {
		limit = 50
	}
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raw))
	for _, r := range raw {
		var e DLQEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			log.Warn().Err(err).Str("queue", queue).Msg("dlq: entrada ilegible")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
