package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablepay/coffee-pos/pkg/lock"
)

// RunTests runs the lock.Manager conformance suite. newManager must return a
// fresh manager whose lock names don't collide with previous ones.
func RunTests(t *testing.T, newManager func() lock.Manager) {
	for _, tf := range []func(t *testing.T, lm lock.Manager){
		testHappyPath,
		testMutualExclusion,
		testCancellation,
		testDoubleAcquire,
		testDoubleUnlock,
		testClose,
	} {
		lm := newManager()
		tf(t, lm)
		lm.Close()
	}
}

func testHappyPath(t *testing.T, lm lock.Manager) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		l, err := lm.Create(ctx, "payment-1")
		require.NoError(t, err)
		assert.False(t, l.IsLocked())

		lostCh, err := l.Acquire(ctx)
		require.NoError(t, err)
		assert.True(t, l.IsLocked())

		select {
		case <-lostCh:
			t.Fatal("lock lost unexpectedly")
		default:
		}

		require.NoError(t, l.Unlock(ctx))
		assert.False(t, l.IsLocked())

		select {
		case <-lostCh:
		case <-time.After(time.Second):
			t.Fatal("lost channel not closed after unlock")
		}

		// The lock can be reacquired after being released
		_, err = l.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, l.Unlock(ctx))
	})
}

func testMutualExclusion(t *testing.T, lm lock.Manager) {
	t.Run("testMutualExclusion", func(t *testing.T) {
		ctx := context.Background()

		first, err := lm.Create(ctx, "payment-2")
		require.NoError(t, err)
		second, err := lm.Create(ctx, "payment-2")
		require.NoError(t, err)
		other, err := lm.Create(ctx, "payment-3")
		require.NoError(t, err)

		_, err = first.Acquire(ctx)
		require.NoError(t, err)

		timeoutCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		_, err = second.Acquire(timeoutCtx)
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, second.IsLocked())

		// Different names don't contend
		_, err = other.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, other.Unlock(ctx))

		acquired := make(chan error, 1)
		go func() {
			_, err := second.Acquire(ctx)
			acquired <- err
		}()

		require.NoError(t, first.Unlock(ctx))

		select {
		case err := <-acquired:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("second lock never acquired")
		}
		assert.True(t, second.IsLocked())
		require.NoError(t, second.Unlock(ctx))
	})
}

func testCancellation(t *testing.T, lm lock.Manager) {
	t.Run("testCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		holder, err := lm.Create(context.Background(), "payment-4")
		require.NoError(t, err)
		_, err = holder.Acquire(context.Background())
		require.NoError(t, err)

		waiter, err := lm.Create(context.Background(), "payment-4")
		require.NoError(t, err)
		_, err = waiter.Acquire(ctx)
		assert.ErrorIs(t, err, context.Canceled)

		require.NoError(t, holder.Unlock(context.Background()))
	})
}

func testDoubleAcquire(t *testing.T, lm lock.Manager) {
	t.Run("testDoubleAcquire", func(t *testing.T) {
		ctx := context.Background()

		l, err := lm.Create(ctx, "payment-5")
		require.NoError(t, err)

		_, err = l.Acquire(ctx)
		require.NoError(t, err)

		_, err = l.Acquire(ctx)
		assert.ErrorIs(t, err, lock.ErrConcurrentAcquire)

		require.NoError(t, l.Unlock(ctx))
	})
}

func testDoubleUnlock(t *testing.T, lm lock.Manager) {
	t.Run("testDoubleUnlock", func(t *testing.T) {
		ctx := context.Background()

		l, err := lm.Create(ctx, "payment-6")
		require.NoError(t, err)

		require.NoError(t, l.Unlock(ctx))

		_, err = l.Acquire(ctx)
		require.NoError(t, err)

		require.NoError(t, l.Unlock(ctx))
		require.NoError(t, l.Unlock(ctx))
	})
}

func testClose(t *testing.T, lm lock.Manager) {
	t.Run("testClose", func(t *testing.T) {
		ctx := context.Background()

		l, err := lm.Create(ctx, "payment-7")
		require.NoError(t, err)

		lostCh, err := l.Acquire(ctx)
		require.NoError(t, err)

		require.NoError(t, lm.Close())

		select {
		case <-lostCh:
		case <-time.After(2 * time.Second):
			t.Fatal("lost channel not closed after manager close")
		}

		_, err = lm.Create(ctx, "payment-8")
		assert.ErrorIs(t, err, lock.ErrManagerClosed)
	})
}
