package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_AbreEFechaAposTimeout(t *testing.T) {
	agora := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "smtp", FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Minute})
	cb.now = func() time.Time { return agora }

	falha := errors.New("dial tcp: timeout")
	assert.ErrorIs(t, cb.Execute(func() error { return falha }), falha)
	assert.Equal(t, CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return falha }), falha)
	assert.Equal(t, CBOpen, cb.State())

	chamou := false
	assert.ErrorIs(t, cb.Execute(func() error { chamou = true; return nil }), ErrCircuitOpen)
	assert.False(t, chamou)

	agora = agora.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_FalhaNoHalfOpenReabre(t *testing.T) {
	agora := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second})
	cb.now = func() time.Time { return agora }

	_ = cb.Execute(func() error { return errors.New("x") })
	agora = agora.Add(time.Second)
	assert.Equal(t, CBHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errors.New("x") })
	assert.Equal(t, CBOpen, cb.State())
}
