// Package runner drives model calls through the shared reliability layer:
// per-provider rate gates, retry with exponential backoff, and a breaker
// that fails a provider fast once its credentials are rejected.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/comicbench/comicbench/internal/config"
	"github.com/comicbench/comicbench/internal/domain"
	"github.com/comicbench/comicbench/internal/provider"
	"github.com/comicbench/comicbench/internal/ratelimit"
)

// Request is the provider-agnostic half of a model call; the model config
// supplies the rest.
type Request struct {
	Prompt    string
	Image     []byte
	ImageMIME string
}

type Task struct {
	Model   *domain.ModelConfig
	Request Request
}

// Outcome pairs a task's model name with its result so batch results can
// be consumed in any order.
type Outcome struct {
	Model  string
	Result provider.CompletionResult
	Err    error
}

type Runner struct {
	completers map[domain.Provider]provider.Completer
	gates      map[domain.Provider]*ratelimit.Gate
	breakers   map[domain.Provider]*authBreaker
	retry      config.RetryPolicy
	logger     *zap.Logger

	// Overridable for deterministic tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a runner over the given provider adapters. Each provider
// gets its own admission gate sized from the models config.
func New(completers []provider.Completer, models *config.Models, logger *zap.Logger) *Runner {
	r := &Runner{
		completers: make(map[domain.Provider]provider.Completer, len(completers)),
		gates:      make(map[domain.Provider]*ratelimit.Gate, len(completers)),
		breakers:   make(map[domain.Provider]*authBreaker, len(completers)),
		retry:      models.Retry,
		logger:     logger,
		sleep:      sleepFor,
	}
	for _, c := range completers {
		p := c.Name()
		r.completers[p] = c
		r.gates[p] = ratelimit.NewGate(models.RateLimit(p))
		r.breakers[p] = &authBreaker{}
	}
	return r
}

// Run executes one model call under the reliability policy. Transport and
// rate-limit failures are retried with backoff; an auth failure trips the
// provider's breaker so later calls fail without spending attempts; a
// malformed response fails the call outright.
func (r *Runner) Run(ctx context.Context, mc *domain.ModelConfig, req Request) (provider.CompletionResult, error) {
	c, ok := r.completers[mc.Provider]
	if !ok {
		return provider.CompletionResult{}, fmt.Errorf("no adapter for provider %s", mc.Provider)
	}
	gate := r.gates[mc.Provider]
	breaker := r.breakers[mc.Provider]

	delay := r.retry.InitialDelay()
	var lastErr error

	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		if err := breaker.Err(); err != nil {
			return provider.CompletionResult{}, err
		}
		if err := gate.Acquire(ctx); err != nil {
			return provider.CompletionResult{}, err
		}

		result, err := c.Complete(ctx, provider.CompletionRequest{
			Model:       mc.Model,
			Prompt:      req.Prompt,
			Image:       req.Image,
			ImageMIME:   req.ImageMIME,
			MaxTokens:   mc.MaxTokens,
			Temperature: mc.Temperature,
		})
		if err == nil {
			r.logger.Debug("model call succeeded",
				zap.String("model", mc.Name),
				zap.Int("attempt", attempt),
				zap.Duration("latency", result.Latency),
				zap.Int64("output_tokens", result.OutputTokens))
			return result, nil
		}

		if provider.IsAuth(err) {
			breaker.Trip(err)
			r.logger.Error("provider credentials rejected, failing fast",
				zap.String("provider", mc.Provider.String()),
				zap.String("model", mc.Name),
				zap.Error(err))
			return provider.CompletionResult{}, err
		}
		if !provider.IsRetryable(err) {
			r.logger.Error("model call failed",
				zap.String("model", mc.Name),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return provider.CompletionResult{}, err
		}

		lastErr = err
		if attempt < r.retry.MaxAttempts {
			r.logger.Warn("model call failed, retrying",
				zap.String("model", mc.Name),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
			if serr := r.sleep(ctx, delay); serr != nil {
				return provider.CompletionResult{}, serr
			}
			delay = time.Duration(float64(delay) * r.retry.BackoffFactor)
		}
	}

	return provider.CompletionResult{}, fmt.Errorf("model %s failed after %d attempts: %w",
		mc.Name, r.retry.MaxAttempts, lastErr)
}

// RunAll fans a batch of tasks out across goroutines, one per task. Each
// task fails or succeeds on its own; a failure never cancels the batch.
func (r *Runner) RunAll(ctx context.Context, tasks []Task) []Outcome {
	p := pool.NewWithResults[Outcome]().WithMaxGoroutines(len(r.completers) + 1)
	for _, task := range tasks {
		task := task
		p.Go(func() Outcome {
			result, err := r.Run(ctx, task.Model, task.Request)
			return Outcome{Model: task.Model.Name, Result: result, Err: err}
		})
	}
	return p.Wait()
}

// authBreaker latches the first credential failure for a provider.
type authBreaker struct {
	mu      sync.Mutex
	tripped error
}

func (b *authBreaker) Trip(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tripped == nil {
		b.tripped = err
	}
}

func (b *authBreaker) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tripped == nil {
		return nil
	}
	return fmt.Errorf("provider disabled after auth failure: %w", b.tripped)
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
