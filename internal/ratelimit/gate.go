// Package ratelimit provides the per-provider admission gate: a token
// bucket sized in requests per minute. Admission is serialized, so a
// saturated bucket delays later callers instead of dropping them.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Gate struct {
	perMinute float64
	tokens    float64
	last      time.Time

	mu sync.Mutex

	// Overridable for deterministic tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewGate(perMinute int) *Gate {
	if perMinute < 1 {
		perMinute = 1
	}
	g := &Gate{
		perMinute: float64(perMinute),
		tokens:    float64(perMinute),
		now:       time.Now,
		sleep:     sleepFor,
	}
	g.last = g.now()
	return g
}

// Acquire blocks until the gate admits one request or ctx is done. The
// mutex is held for the full wait: that is what serializes admission and
// keeps the configured requests-per-minute ceiling a hard bound.
func (g *Gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	elapsed := now.Sub(g.last).Seconds()
	g.tokens = min(g.perMinute, g.tokens+elapsed*(g.perMinute/60))
	g.last = now

	if g.tokens < 1 {
		wait := time.Duration((1 - g.tokens) * (60 / g.perMinute) * float64(time.Second))
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
		g.last = g.now()
		g.tokens = 1
	}

	g.tokens--
	return nil
}

func sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
