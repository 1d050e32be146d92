package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mvsat/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

const (
	QueueRecibo = "jobs:recibo"
	QueueEmail  = "jobs:email"
	// QueueRetry is a sorted set of failed jobs scored by their next attempt (unix ms).
	QueueRetry = "jobs:retry"
)

// Job types.
const (
	TipoRecibo        = "recibo"
	TipoAvisoCobranca = "aviso_cobranca"
)

// MaxTentativas is how many times a job runs before it is dead-lettered.
const MaxTentativas = 5

// Job is the generic envelope for all async tasks.
type Job struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Queue    string          `json:"queue"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// CobrancaJobPayload is the payload of both recibo and aviso jobs.
type CobrancaJobPayload struct {
	CobrancaID string `json:"cobranca_id"`
}

// Handler processes one job payload. Returning an error wrapped with
// backoff.Permanent sends the job straight to the DLQ.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// ── Dispatcher ────────────────────────────────────────────────────────────────

// Dispatcher enqueues async jobs into Redis lists.
// A nil Dispatcher drops every job, which is how the API runs without Redis.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	if rdb == nil {
		return nil
	}
	return &Dispatcher{rdb: rdb}
}

// EnqueueRecibo asks for the PDF receipt of a paid cobrança.
func (d *Dispatcher) EnqueueRecibo(ctx context.Context, cobrancaID uuid.UUID) error {
	return d.enqueue(ctx, QueueRecibo, TipoRecibo, CobrancaJobPayload{CobrancaID: cobrancaID.String()})
}

// EnqueueAvisoCobranca asks for the e-mail announcing a new cobrança.
func (d *Dispatcher) EnqueueAvisoCobranca(ctx context.Context, cobrancaID uuid.UUID) error {
	return d.enqueue(ctx, QueueEmail, TipoAvisoCobranca, CobrancaJobPayload{CobrancaID: cobrancaID.String()})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	if d == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, Job{ID: uuid.NewString(), Type: jobType, Queue: queue, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, job.Queue, encoded).Err()
}

// ── Pool ──────────────────────────────────────────────────────────────────────

// Pool runs N goroutines consuming every queue. Each goroutine blocks on
// BRPOP, so an idle pool costs nothing.
type Pool struct {
	rdb      *redis.Client
	size     int
	handlers map[string]Handler
	metrics  *metrics.Metrics
	agora    func() time.Time

	// pausaErro throttles the loop while Redis is unreachable.
	pausaErro time.Duration
}

func NewPool(rdb *redis.Client, size int, m *metrics.Metrics) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		rdb:       rdb,
		size:      size,
		handlers:  make(map[string]Handler),
		metrics:   m,
		agora:     time.Now,
		pausaErro: time.Second,
	}
}

// Register binds a job type to its handler. Call before Run.
func (p *Pool) Register(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Run blocks until ctx is cancelled and every worker has returned.
func (p *Pool) Run(ctx context.Context) {
	var wg conc.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Go(func() { p.runWorker(ctx, i) })
	}
	log.Info().Msgf("worker pool started with %d workers", p.size)
	wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	queues := []string{QueueRecibo, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
		}
		// waits up to 5s then loops to check ctx
		result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
		if err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			log.Warn().Err(err).Int("worker", id).Msg("worker: BRPOP falhou, aguardando")
			select {
			case <-ctx.Done():
			case <-time.After(p.pausaErro):
			}
			continue
		}
		if err != nil || len(result) < 2 {
			continue
		}
		p.processar(ctx, result[0], result[1])
	}
}

// processar runs one raw job and routes failures to the retry set or the DLQ.
func (p *Pool) processar(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("worker: invalid job envelope")
		return
	}
	if job.Queue == "" {
		job.Queue = queue
	}
	job.Attempts++

	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, job, "no handler registered for job type")
		p.metrics.Job(job.Type, errors.New("sem handler"))
		return
	}

	var pc panics.Catcher
	var err error
	pc.Try(func() { err = h.Process(ctx, job.Payload) })
	if r := pc.Recovered(); r != nil {
		err = backoff.Permanent(r.AsError())
	}
	p.metrics.Job(job.Type, err)
	if err == nil {
		return
	}

	var permanente *backoff.PermanentError
	switch {
	case errors.As(err, &permanente):
		SendToDLQ(ctx, p.rdb, job, err.Error())
	case job.Attempts >= MaxTentativas:
		SendToDLQ(ctx, p.rdb, job, fmt.Sprintf("max retries (%d) exceeded: %v", MaxTentativas, err))
	default:
		p.agendar(ctx, job, err)
	}
}

// agendar puts job into the retry set, due after an exponential delay.
func (p *Pool) agendar(ctx context.Context, job Job, causa error) {
	encoded, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("worker: failed to encode retry")
		return
	}
	quando := p.agora().Add(Atraso(job.Attempts))
	if err := p.rdb.ZAdd(ctx, QueueRetry, redis.Z{Score: float64(quando.UnixMilli()), Member: encoded}).Err(); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("worker: failed to schedule retry")
		return
	}
	log.Warn().Err(causa).
		Str("job_id", job.ID).
		Str("type", job.Type).
		Int("attempt", job.Attempts).
		Time("next_retry_at", quando).
		Msg("worker: job failed, retry scheduled")
}

// Atraso is the wait before attempt n+1: 2s, 4s, 8s ... capped at 5 minutes.
func Atraso(tentativas int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 5 * time.Minute
	b.MaxElapsedTime = 0
	b.Reset()

	d := b.InitialInterval
	for i := 0; i < tentativas; i++ {
		d = b.NextBackOff()
	}
	return d
}
