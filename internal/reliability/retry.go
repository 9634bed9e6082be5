package reliability

import (
	"context"
	"time"
)

const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = 2 * time.Second
)

// Policy retries an operation on rate-limit failures with a fixed spacing.
// A nil ShouldRetry means IsQuotaError.
type Policy struct {
	MaxRetries  int
	Delay       time.Duration
	ShouldRetry func(error) bool
	// Sleep waits between attempts; tests replace it to observe the delays.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry runs before each wait with the remaining retries and the failure.
	OnRetry func(remaining int, err error)
}

// DefaultPolicy returns the policy used for text turns.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, Delay: DefaultRetryDelay}
}

// Retry invokes op and retries it while p.ShouldRetry accepts the failure and
// retries remain. Other errors are returned unchanged after the first call.
func Retry[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()
	remaining := p.MaxRetries
	for {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if remaining <= 0 || !p.ShouldRetry(err) {
			return v, err
		}
		if p.OnRetry != nil {
			p.OnRetry(remaining, err)
		}
		if sleepErr := p.Sleep(ctx, p.Delay); sleepErr != nil {
			return v, err
		}
		remaining--
	}
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	if p.ShouldRetry == nil {
		p.ShouldRetry = IsQuotaError
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
