package hellopeter

import (
	"context"
	"math"
	"time"

	"reviewsync/internal/domain"
)

// RetryPolicy describes the backoff ladder for transient failures.
type RetryPolicy struct {
	// MaxAttempts counts every call, including the first one.
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
	MaxWait     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		Factor:      2,
		MaxWait:     30 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Factor < 1 {
		p.Factor = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	return p
}

// Backoff returns the wait before the n-th retry (n >= 1): BaseDelay * Factor^(n-1), capped at MaxWait.
func (p RetryPolicy) Backoff(n int) time.Duration {
	p = p.normalized()
	if n < 1 {
		n = 1
	}
	d := float64(p.BaseDelay) * math.Pow(p.Factor, float64(n-1))
	if p.MaxWait > 0 && d > float64(p.MaxWait) {
		return p.MaxWait
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Sleeper blocks for d unless ctx ends first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Attempt is one try of a retried operation. hint, when > 0, asks for at least that long before the next try.
type Attempt func(ctx context.Context, attempt int) (hint time.Duration, err error)

// Retry runs fn until it succeeds, fails permanently, or the policy runs out of attempts.
// Only errors classified by domain.IsTransient are retried; anything else is returned as is.
func Retry(ctx context.Context, p RetryPolicy, sleep Sleeper, fn Attempt) error {
	p = p.normalized()
	if sleep == nil {
		sleep = sleepCtx
	}

	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		hint, err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !domain.IsTransient(err) {
			return err
		}
		last = err
		if attempt == p.MaxAttempts {
			break
		}

		wait := p.Backoff(attempt)
		if hint > wait {
			wait = hint
			if p.MaxWait > 0 && wait > p.MaxWait {
				wait = p.MaxWait
			}
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return &domain.ExhaustedRetriesError{Attempts: p.MaxAttempts, Last: last}
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
