package worker

// retry_cron.go
// Background goroutine that periodically moves due jobs from the retry set
// back to their queues. Skips the tick while the SMTP breaker is open, since
// every job type ends in an e-mail.

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"mvsat/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 5 * time.Second
	retryBatchSize    = 50
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	RDB      *redis.Client
	CB       *infra.CircuitBreaker // optional
	Interval time.Duration         // retryTickInterval when zero
}

// StartRetryCron launches the retry pump. It respects ctx for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = retryTickInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case now := <-ticker.C:
				if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
					log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
					continue
				}
				if _, err := PromoverVencidos(ctx, cfg.RDB, now); err != nil {
					log.Error().Err(err).Msg("retry_cron: failed to promote due jobs")
				}
			}
		}
	}()
}

// PromoverVencidos re-enqueues every job whose retry time is <= now.
// ZREM decides ownership, so concurrent pumps never enqueue a job twice.
func PromoverVencidos(ctx context.Context, rdb *redis.Client, now time.Time) (int, error) {
	members, err := rdb.ZRangeByScore(ctx, QueueRetry, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		return 0, err
	}

	n := 0
	for _, raw := range members {
		removed, err := rdb.ZRem(ctx, QueueRetry, raw).Result()
		if err != nil {
			return n, err
		}
		if removed == 0 {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			log.Error().Err(err).Msg("retry_cron: dropping unreadable job")
			continue
		}
		if err := rdb.LPush(ctx, job.Queue, raw).Err(); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("retry_cron: jobs re-enqueued")
	}
	return n, nil
}
