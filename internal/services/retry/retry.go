package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"podcastproc/internal/services"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Decision is the classifier verdict for a failed attempt.
type Decision struct {
	Retry bool
	// After overrides the computed backoff (e.g. a Retry-After header).
	After time.Duration
}

// Attempt describes a finished attempt for observers.
type Attempt struct {
	Number   int
	Err      error
	Elapsed  time.Duration
	Delay    time.Duration
	Retrying bool
}

// Policy controls how Do retries an operation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// MaxElapsed caps the total time spent in backoff waits. Zero disables the cap.
	MaxElapsed time.Duration
	// Jitter is the fraction (0..1) of each delay that is randomized.
	Jitter float64

	Classify  func(error) Decision
	Sleep     func(context.Context, time.Duration) error
	Rand      func() float64
	OnAttempt func(Attempt)
}

// DefaultPolicy mirrors the original pipeline's schedule: three attempts,
// exponential waits between 2s and 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		MaxElapsed:  30 * time.Second,
		Jitter:      0.2,
		Classify:    ClassifyMarked,
	}
}

// ClassifyMarked retries errors carrying services.ErrTransientService.
func ClassifyMarked(err error) Decision {
	return Decision{Retry: services.IsRetryable(err)}
}

// Do runs op until it succeeds, the classifier rejects a failure, or the policy
// budget is exhausted.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		return zero, errors.New("retry: nil context")
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	classify := p.Classify
	if classify == nil {
		classify = ClassifyMarked
	}

	var waited time.Duration
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		started := time.Now()
		value, err := op(ctx, attempt)
		elapsed := time.Since(started)
		if err == nil {
			p.observe(Attempt{Number: attempt, Elapsed: elapsed})
			return value, nil
		}
		lastErr = err

		decision := classify(err)
		if !decision.Retry || ctx.Err() != nil {
			p.observe(Attempt{Number: attempt, Err: err, Elapsed: elapsed})
			return zero, err
		}
		if attempt == attempts {
			p.observe(Attempt{Number: attempt, Err: err, Elapsed: elapsed})
			break
		}

		delay := decision.After
		if delay <= 0 {
			delay = p.backoff(attempt)
		}
		delay = p.capDelay(delay)
		if p.MaxElapsed > 0 && waited+delay > p.MaxElapsed {
			p.observe(Attempt{Number: attempt, Err: err, Elapsed: elapsed})
			return zero, services.Wrap(services.ErrTransientService, "retry", "", fmt.Sprintf("wait budget %s exhausted after %d attempts", p.MaxElapsed, attempt), err)
		}
		p.observe(Attempt{Number: attempt, Err: err, Elapsed: elapsed, Delay: delay, Retrying: true})
		if err := p.sleep(ctx, delay); err != nil {
			return zero, err
		}
		waited += delay
	}

	return zero, services.Wrap(services.ErrTransientService, "retry", "", fmt.Sprintf("failed after %d attempts", attempts), lastErr)
}

func (p Policy) observe(a Attempt) {
	if p.OnAttempt != nil {
		p.OnAttempt(a)
	}
}

// backoff returns base * 2^(attempt-1) with jitter applied, before capping.
func (p Policy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := p.maxDelay()
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	jitter := p.Jitter
	if jitter <= 0 {
		return delay
	}
	if jitter > 1 {
		jitter = 1
	}
	r := rand.Float64
	if p.Rand != nil {
		r = p.Rand
	}
	// Scale into [1-jitter, 1+jitter].
	factor := 1 - jitter + 2*jitter*r()
	return time.Duration(float64(delay) * factor)
}

func (p Policy) maxDelay() time.Duration {
	if p.MaxDelay > 0 {
		return p.MaxDelay
	}
	return defaultMaxDelay
}

func (p Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := p.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if p.Sleep != nil {
		return p.Sleep(ctx, delay)
	}
	return SleepContext(ctx, delay)
}

// SleepContext waits for delay or until ctx is done.
func SleepContext(ctx context.Context, delay time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
