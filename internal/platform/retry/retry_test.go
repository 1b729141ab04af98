package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBudget(attempts int) Budget {
	return Budget{Attempts: attempts, Delay: time.Millisecond}
}

func TestDo(t *testing.T) {
	t.Run("succeeds on a later attempt", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastBudget(3), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhaustion wraps both sentinels", func(t *testing.T) {
		cause := errors.New("backend still syncing")
		err := Do(context.Background(), fastBudget(2), func(context.Context) error {
			return cause
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBudgetExhausted)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("cancellation during the wait surfaces ctx error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		budget := Budget{Attempts: 5, Delay: time.Minute}

		calls := 0
		done := make(chan error, 1)
		go func() {
			done <- Do(ctx, budget, func(context.Context) error {
				calls++
				return errors.New("fail")
			})
		}()
		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
			assert.NotErrorIs(t, err, ErrBudgetExhausted)
			assert.Equal(t, 1, calls)
		case <-time.After(2 * time.Second):
			t.Fatal("Do did not return after cancellation")
		}
	})

	t.Run("zero attempts exhausts immediately", func(t *testing.T) {
		err := Do(context.Background(), Budget{}, func(context.Context) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorIs(t, err, ErrBudgetExhausted)
	})
}

func TestUntil(t *testing.T) {
	t.Run("polls until done", func(t *testing.T) {
		calls := 0
		err := Until(context.Background(), fastBudget(5), func(context.Context) (bool, error) {
			calls++
			return calls == 2, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("fn error aborts immediately", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := Until(context.Background(), fastBudget(5), func(context.Context) (bool, error) {
			calls++
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("running out of attempts exhausts the budget", func(t *testing.T) {
		err := Until(context.Background(), fastBudget(3), func(context.Context) (bool, error) {
			return false, nil
		})
		assert.ErrorIs(t, err, ErrBudgetExhausted)
	})
}

func TestBudgetDelayGrowsLinearly(t *testing.T) {
	b := Budget{Attempts: 4, Delay: 10 * time.Millisecond, Step: 5 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, b.delay(0))
	assert.Equal(t, 15*time.Millisecond, b.delay(1))
	assert.Equal(t, 20*time.Millisecond, b.delay(2))
}
