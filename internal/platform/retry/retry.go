// Package retry provides the single bounded-wait primitive shared by every
// eventual-consistency call site in the engine: the credential-appearance
// wait after admitting grants, the community-space access wait after join,
// and the profile-creation retry. Budgets are always bounded so a broken
// backend fails the operation instead of hanging it.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrBudgetExhausted is returned when every attempt in the budget has been
// spent without the condition being met.
var ErrBudgetExhausted = errors.New("retry budget exhausted")

// Budget bounds a retry loop. Delay is the wait between attempts; a nonzero
// Step grows the delay linearly (Delay, Delay+Step, Delay+2*Step, ...).
type Budget struct {
	Attempts int
	Delay    time.Duration
	Step     time.Duration
}

func (b Budget) delay(attempt int) time.Duration {
	return b.Delay + time.Duration(attempt)*b.Step
}

// Do runs fn up to Attempts times, sleeping between attempts, until fn
// returns nil. The last attempt's error is wrapped with ErrBudgetExhausted
// so callers can distinguish exhaustion from cancellation.
func Do(ctx context.Context, b Budget, fn func(ctx context.Context) error) error {
	var last error
	for attempt := 0; attempt < b.Attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, b.delay(attempt-1)); err != nil {
				return err
			}
		}
		last = fn(ctx)
		if last == nil {
			return nil
		}
	}
	if last == nil {
		last = errors.New("no attempts configured")
	}
	return errors.Join(ErrBudgetExhausted, last)
}

// Until polls fn up to Attempts times until it reports done. A non-nil error
// from fn aborts immediately; running out of attempts returns
// ErrBudgetExhausted.
func Until(ctx context.Context, b Budget, fn func(ctx context.Context) (bool, error)) error {
	for attempt := 0; attempt < b.Attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, b.delay(attempt-1)); err != nil {
				return err
			}
		}
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return ErrBudgetExhausted
}

func sleep(ctx context.Context, d time.Duration) error {
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
