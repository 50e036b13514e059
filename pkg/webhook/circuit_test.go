package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_Transitions(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, 2, time.Minute)
	cb.now = func() time.Time { return now }

	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State())
	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())

	now = now.Add(61 * time.Second)
	assert.True(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())

	now = now.Add(61 * time.Second)
	assert.True(t, cb.Allow())
	cb.RecordSuccess()
	assert.Equal(t, CircuitHalfOpen, cb.State())
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker(2, 1, time.Minute)
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBackoff(t *testing.T) {
	t.Parallel()
	exp := ExponentialBackoff{InitialInterval: time.Second, MaxInterval: 5 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Duration(0), exp.NextInterval(0))
	assert.Equal(t, time.Second, exp.NextInterval(1))
	assert.Equal(t, 2*time.Second, exp.NextInterval(2))
	assert.Equal(t, 4*time.Second, exp.NextInterval(3))
	assert.Equal(t, 5*time.Second, exp.NextInterval(4))

	jittered := ExponentialBackoff{InitialInterval: time.Second, JitterFactor: 0.1}
	for range 20 {
		d := jittered.NextInterval(1)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}

	assert.Equal(t, 3*time.Second, FixedBackoff{Interval: 3 * time.Second}.NextInterval(7))
}
