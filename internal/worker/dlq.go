package worker

// dlq.go — Dead Letter Queue
// Jobs that exceed the maximum retry count are moved here for manual inspection.
// Uses a Redis list per source queue: dlq:{original_queue}

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
	Job      Job    `json:"job"`
	Reason   string `json:"reason"`
	FailedAt string `json:"failed_at"` // ISO 8601
}

// SendToDLQ pushes a failed job to the dead letter queue for manual inspection.
func SendToDLQ(ctx context.Context, rdb *redis.Client, job Job, reason string) {
	entry := DLQEntry{
		Job:      job,
		Reason:   reason,
		FailedAt: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", job.Queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + job.Queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", job.Queue).
		Str("job_type", job.Type).
		Str("job_id", job.ID).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// Reprocessar moves every dead-lettered job of queue back to it with a fresh
// attempt counter and returns how many were moved.
func Reprocessar(ctx context.Context, rdb *redis.Client, queue string) (int, error) {
	n := 0
	for {
		raw, err := rdb.RPop(ctx, DLQPrefix+queue).Result()
		if err == redis.Nil {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("dlq: dropping unreadable entry")
			continue
		}
		entry.Job.Attempts = 0
		entry.Job.Queue = queue
		if err := push(ctx, rdb, entry.Job); err != nil {
			return n, err
		}
		n++
	}
}
