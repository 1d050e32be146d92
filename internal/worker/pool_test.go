package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"mvsat/internal/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(ctx context.Context, raw json.RawMessage) error

func (f handlerFunc) Process(ctx context.Context, raw json.RawMessage) error { return f(ctx, raw) }

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func encode(t *testing.T, job Job) string {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return string(b)
}

func TestDispatcher_Enqueue(t *testing.T) {
	rdb, mr := newTestRedis(t)
	d := NewDispatcher(rdb)
	id := uuid.New()

	require.NoError(t, d.EnqueueRecibo(context.Background(), id))
	require.NoError(t, d.EnqueueAvisoCobranca(context.Background(), id))

	itens, err := mr.List(QueueRecibo)
	require.NoError(t, err)
	require.Len(t, itens, 1)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(itens[0]), &job))
	assert.Equal(t, TipoRecibo, job.Type)
	assert.Equal(t, QueueRecibo, job.Queue)
	assert.JSONEq(t, `{"cobranca_id":"`+id.String()+`"}`, string(job.Payload))

	avisos, err := mr.List(QueueEmail)
	require.NoError(t, err)
	assert.Len(t, avisos, 1)
}

func TestDispatcher_NilDescarta(t *testing.T) {
	d := NewDispatcher(nil)
	assert.Nil(t, d)
	assert.NoError(t, d.EnqueueRecibo(context.Background(), uuid.New()))
}

func TestPool_FalhaAgendaRetry(t *testing.T) {
	rdb, mr := newTestRedis(t)
	reg := prometheus.NewRegistry()
	p := NewPool(rdb, 1, metrics.New(reg))
	agora := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p.agora = func() time.Time { return agora }
	p.Register(TipoRecibo, handlerFunc(func(context.Context, json.RawMessage) error {
		return errors.New("smtp fora")
	}))

	p.processar(context.Background(), QueueRecibo, encode(t, Job{ID: "j1", Type: TipoRecibo, Queue: QueueRecibo}))

	membros, err := mr.ZMembers(QueueRetry)
	require.NoError(t, err)
	require.Len(t, membros, 1)
	score, err := mr.ZScore(QueueRetry, membros[0])
	require.NoError(t, err)
	assert.Equal(t, float64(agora.Add(2*time.Second).UnixMilli()), score)

	var job Job
	require.NoError(t, json.Unmarshal([]byte(membros[0]), &job))
	assert.Equal(t, 1, job.Attempts)
	assert.False(t, mr.Exists(DLQPrefix+QueueRecibo))
	series, err := testutil.GatherAndCount(reg, "mvsat_worker_jobs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestPool_EsgotaTentativas(t *testing.T) {
	rdb, _ := newTestRedis(t)
	p := NewPool(rdb, 1, nil)
	p.Register(TipoRecibo, handlerFunc(func(context.Context, json.RawMessage) error {
		return errors.New("ainda fora")
	}))

	p.processar(context.Background(), QueueRecibo,
		encode(t, Job{ID: "j2", Type: TipoRecibo, Queue: QueueRecibo, Attempts: MaxTentativas - 1}))

	n, err := DLQLength(context.Background(), rdb, QueueRecibo)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Zero(t, rdb.ZCard(context.Background(), QueueRetry).Val())
}

func TestPool_ErroPermanenteEPanico(t *testing.T) {
	rdb, _ := newTestRedis(t)
	p := NewPool(rdb, 1, nil)
	p.Register(TipoRecibo, handlerFunc(func(context.Context, json.RawMessage) error {
		return backoff.Permanent(errors.New("cobrança sumiu"))
	}))
	p.Register(TipoAvisoCobranca, handlerFunc(func(context.Context, json.RawMessage) error {
		panic("boom")
	}))

	ctx := context.Background()
	p.processar(ctx, QueueRecibo, encode(t, Job{ID: "j3", Type: TipoRecibo, Queue: QueueRecibo}))
	p.processar(ctx, QueueEmail, encode(t, Job{ID: "j4", Type: TipoAvisoCobranca, Queue: QueueEmail}))
	p.processar(ctx, QueueEmail, encode(t, Job{ID: "j5", Type: "desconhecido", Queue: QueueEmail}))

	recibos, _ := DLQLength(ctx, rdb, QueueRecibo)
	emails, _ := DLQLength(ctx, rdb, QueueEmail)
	assert.EqualValues(t, 1, recibos)
	assert.EqualValues(t, 2, emails)
	assert.Zero(t, rdb.ZCard(ctx, QueueRetry).Val())
}

func TestPromoverVencidos(t *testing.T) {
	rdb, mr := newTestRedis(t)
	ctx := context.Background()
	agora := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	vencido := encode(t, Job{ID: "a", Type: TipoRecibo, Queue: QueueRecibo, Attempts: 1})
	futuro := encode(t, Job{ID: "b", Type: TipoAvisoCobranca, Queue: QueueEmail, Attempts: 1})
	rdb.ZAdd(ctx, QueueRetry,
		redis.Z{Score: float64(agora.Add(-time.Second).UnixMilli()), Member: vencido},
		redis.Z{Score: float64(agora.Add(time.Minute).UnixMilli()), Member: futuro},
	)

	n, err := PromoverVencidos(ctx, rdb, agora)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fila, err := mr.List(QueueRecibo)
	require.NoError(t, err)
	assert.Equal(t, []string{vencido}, fila)
	assert.EqualValues(t, 1, rdb.ZCard(ctx, QueueRetry).Val())
}

func TestReprocessarDLQ(t *testing.T) {
	rdb, mr := newTestRedis(t)
	ctx := context.Background()
	SendToDLQ(ctx, rdb, Job{ID: "x", Type: TipoRecibo, Queue: QueueRecibo, Attempts: MaxTentativas}, "falhou")

	n, err := Reprocessar(ctx, rdb, QueueRecibo)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fila, err := mr.List(QueueRecibo)
	require.NoError(t, err)
	require.Len(t, fila, 1)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(fila[0]), &job))
	assert.Zero(t, job.Attempts)
	assert.Equal(t, "x", job.ID)
}

func TestAtraso(t *testing.T) {
	assert.Equal(t, 2*time.Second, Atraso(1))
	assert.Equal(t, 4*time.Second, Atraso(2))
	assert.Equal(t, 8*time.Second, Atraso(3))
	assert.Equal(t, 5*time.Minute, Atraso(20))
}

func TestPool_Run(t *testing.T) {
	rdb, _ := newTestRedis(t)
	p := NewPool(rdb, 2, nil)
	var processados atomic.Int32
	p.Register(TipoRecibo, handlerFunc(func(context.Context, json.RawMessage) error {
		processados.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	d := NewDispatcher(rdb)
	require.NoError(t, d.EnqueueRecibo(context.Background(), uuid.New()))
	require.NoError(t, d.EnqueueRecibo(context.Background(), uuid.New()))

	assert.Eventually(t, func() bool { return processados.Load() == 2 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("pool did not stop")
	}
}

// contaBRPop counts BRPOP commands sent by the client.
type contaBRPop struct{ n atomic.Int64 }

func (h *contaBRPop) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *contaBRPop) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "brpop" {
			h.n.Add(1)
		}
		return next(ctx, cmd)
	}
}

func (h *contaBRPop) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestPool_RedisForaDoArPausaEntreTentativas(t *testing.T) {
	rdb, mr := newTestRedis(t)
	contador := &contaBRPop{}
	rdb.AddHook(contador)
	mr.Close()

	p := NewPool(rdb, 1, nil)
	p.pausaErro = 100 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 350*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	// without the pause a refused connection spins thousands of times
	assert.LessOrEqual(t, contador.n.Load(), int64(6))
	assert.GreaterOrEqual(t, contador.n.Load(), int64(1))
}
