package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablepay/coffee-pos/pkg/retry/backoff"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	sleeperImpl = &testSleeper{}

	var calls int
	attempts, err := Retry(
		func() error {
			calls++
			if calls < 3 {
				return errors.New("connection reset")
			}
			return nil
		},
		Limit(5),
		Backoff(backoff.Constant(time.Millisecond), time.Millisecond),
	)
	require.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
	assert.EqualValues(t, 2*time.Millisecond, sleeperImpl.(*testSleeper).Total())
}

func TestRetry_StopsOnFirstRejection(t *testing.T) {
	sleeperImpl = &testSleeper{}

	errNotFound := errors.New("payment not found")
	attempts, err := Retry(
		func() error { return errNotFound },
		NonRetriableErrors(errNotFound),
		Backoff(backoff.Constant(time.Second), time.Second),
	)
	assert.ErrorIs(t, err, errNotFound)
	assert.EqualValues(t, 1, attempts)
	assert.Zero(t, sleeperImpl.(*testSleeper).Total())
}

func TestRealSleeper(t *testing.T) {
	sleeperImpl = realSleeper{}

	start := time.Now()
	attempts, err := Retry(
		func() error { return errors.New("err") },
		Limit(2),
		Backoff(backoff.Constant(200*time.Millisecond), 200*time.Millisecond),
	)
	assert.Error(t, err)
	assert.EqualValues(t, 2, attempts)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo(t *testing.T) {
	sleeperImpl = &testSleeper{}

	type ctxKey struct{}
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "v"))

	var calls int
	attempts, err := Do(
		ctx,
		func(ctx context.Context) error {
			calls++
			assert.Equal(t, "v", ctx.Value(ctxKey{}))
			if calls == 2 {
				cancel()
			}
			return errors.New("timeout")
		},
		Limit(10),
	)
	assert.Error(t, err)
	assert.EqualValues(t, 2, attempts)
	assert.Equal(t, 2, calls)
}
