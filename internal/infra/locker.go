package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CycleLockNamespace prefixes the Redis keys of billing cycle locks.
const CycleLockNamespace = "mvsat:trava:"

var (
	ErrLockInvalido = errors.New("trava: chave vazia ou ttl não positivo")
	ErrLockSemRedis = errors.New("trava: redis não configurado")
	ErrLockNaoDono  = errors.New("trava: token não é o dono atual")
)

// CycleLock serializes work on one billing cycle across API instances. A lock
// is a Redis key holding the owner token and expiring after ttl; only the
// holder of the token may delete it.
type CycleLock struct {
	rdb  *redis.Client
	dono string
}

// NewCycleLock returns nil for a nil client so callers can run unlocked.
func NewCycleLock(rdb *redis.Client) *CycleLock {
	if rdb == nil {
		return nil
	}
	host, _ := os.Hostname()
	return &CycleLock{rdb: rdb, dono: host}
}

// TryLock attempts the lock once. ok is false when someone else holds it.
func (l *CycleLock) TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error) {
	if l == nil {
		return "", false, ErrLockSemRedis
	}
	if key == "" || ttl <= 0 {
		return "", false, ErrLockInvalido
	}
	token = fmt.Sprintf("%s/%s", l.dono, uuid.NewString())
	err = l.rdb.SetArgs(ctx, CycleLockNamespace+key, token, redis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return token, true, nil
}

// Release deletes the lock when token still owns it. A lock that already
// expired is not an error; one taken over by another owner is ErrLockNaoDono.
func (l *CycleLock) Release(ctx context.Context, key, token string) error {
	if l == nil || key == "" || token == "" {
		return nil
	}
	k := CycleLockNamespace + key
	err := l.rdb.Watch(ctx, func(tx *redis.Tx) error {
		atual, err := tx.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			log.Debug().Str("lock", key).Msg("trava: expirou antes da liberação")
			return nil
		}
		if err != nil {
			return err
		}
		if atual != token {
			return ErrLockNaoDono
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, k)
			return nil
		})
		return err
	}, k)
	if errors.Is(err, redis.TxFailedErr) {
		// key changed between GET and DEL: it expired and was retaken
		return ErrLockNaoDono
	}
	return err
}
