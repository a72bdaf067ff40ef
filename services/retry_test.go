package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffRetryerAttemptBudget(t *testing.T) {
	r := NewBackoffRetryer(10, 500*time.Millisecond, time.Second)

	retries := 0
	for attempt := 0; ; attempt++ {
		if _, ok := r.NextDelay(attempt); !ok {
			break
		}
		retries++
	}

	assert.Equal(t, 9, retries, "ten attempts means nine waits")
}

func TestBackoffRetryerBounds(t *testing.T) {
	r := NewBackoffRetryer(10, 500*time.Millisecond, time.Second)

	for attempt := 0; attempt < 9; attempt++ {
		delay, ok := r.NextDelay(attempt)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, delay, 500*time.Millisecond)
		assert.LessOrEqual(t, delay, time.Second)
	}
}

func TestBackoffRetryerGrowth(t *testing.T) {
	r := NewBackoffRetryer(5, 100*time.Millisecond, time.Second)
	r.Randomize = false

	delays := make([]time.Duration, 0, 4)
	for attempt := 0; attempt < 4; attempt++ {
		d, _ := r.NextDelay(attempt)
		delays = append(delays, d)
	}

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}, delays)
}

func TestBackoffRetryerRandomizationIsCapped(t *testing.T) {
	r := NewBackoffRetryer(3, 600*time.Millisecond, time.Second)
	r.random = func() float64 { return 0.99 }

	d, ok := r.NextDelay(0)
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}
