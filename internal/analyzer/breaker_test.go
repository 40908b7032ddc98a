package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	breaker := NewBreaker(3, time.Minute)

	assert.True(t, breaker.Allow())
	breaker.RecordFailure()
	breaker.RecordFailure()
	assert.True(t, breaker.Allow())

	breaker.RecordFailure()
	assert.False(t, breaker.Allow())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	breaker := NewBreaker(2, time.Minute)

	breaker.RecordFailure()
	breaker.RecordSuccess()
	breaker.RecordFailure()
	assert.True(t, breaker.Allow())
}

func TestBreakerClosesAfterCooldown(t *testing.T) {
	breaker := NewBreaker(1, 10*time.Millisecond)

	breaker.RecordFailure()
	assert.False(t, breaker.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, breaker.Allow())
}
