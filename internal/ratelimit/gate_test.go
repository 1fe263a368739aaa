package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the gate sleeps, making admission timing
// fully deterministic.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	c.sleeps++
	return nil
}

func newTestGate(perMinute int) (*Gate, *fakeClock) {
	clock := newFakeClock()
	g := NewGate(perMinute)
	g.now = clock.Now
	g.sleep = clock.Sleep
	g.last = clock.Now()
	return g, clock
}

func TestGateAdmitsUpToBurstImmediately(t *testing.T) {
	g, clock := newTestGate(5)

	for i := 0; i < 5; i++ {
		require.NoError(t, g.Acquire(context.Background()))
	}
	assert.Zero(t, clock.sleeps, "first N admissions must not wait")
}

func TestGateDelaysBeyondWindowLimit(t *testing.T) {
	g, clock := newTestGate(1)

	require.NoError(t, g.Acquire(context.Background()))
	require.NoError(t, g.Acquire(context.Background()))

	require.Equal(t, 1, clock.sleeps, "second call must be delayed, not dropped")
	assert.Equal(t, time.Minute, clock.slept[0])
}

func TestGateSustainedRateMatchesLimit(t *testing.T) {
	const perMinute = 4
	g, clock := newTestGate(perMinute)

	// Issue many admissions and record when each one lands.
	var admitted []time.Time
	for i := 0; i < 20; i++ {
		require.NoError(t, g.Acquire(context.Background()))
		admitted = append(admitted, clock.Now())
	}

	// Once the initial burst is spent, admissions settle at one per
	// 60/perMinute seconds, so no drained window ever exceeds the limit.
	interval := time.Minute / perMinute
	for i := perMinute; i < len(admitted); i++ {
		assert.Equal(t, interval, admitted[i].Sub(admitted[i-1]),
			"admission %d not paced at the sustained rate", i)
	}

	total := admitted[len(admitted)-1].Sub(admitted[0])
	assert.Equal(t, interval*time.Duration(len(admitted)-perMinute), total)
}

func TestGateRefillsAfterIdle(t *testing.T) {
	g, clock := newTestGate(2)

	require.NoError(t, g.Acquire(context.Background()))
	require.NoError(t, g.Acquire(context.Background()))

	// A full minute of idle time restores the bucket.
	clock.now = clock.now.Add(time.Minute)
	sleepsBefore := clock.sleeps

	require.NoError(t, g.Acquire(context.Background()))
	assert.Equal(t, sleepsBefore, clock.sleeps)
}

func TestGateHonorsContextCancellation(t *testing.T) {
	g, _ := newTestGate(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g.sleep = sleepFor // real sleeper so cancellation is observed

	require.NoError(t, g.Acquire(context.Background()))
	err := g.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
