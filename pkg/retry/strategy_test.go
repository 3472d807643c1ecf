package retry

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/sablepay/coffee-pos/pkg/retry/backoff"
)

var (
	errTransient = errors.New("transient")
	errPermanent = errors.New("permanent")
)

func TestLimit(t *testing.T) {
	strategy := Limit(3)
	assert.True(t, strategy(1, errTransient))
	assert.True(t, strategy(2, errTransient))
	assert.False(t, strategy(3, errTransient))

	attempts, err := Retry(func() error { return errTransient }, Limit(3))
	assert.ErrorIs(t, err, errTransient)
	assert.EqualValues(t, 3, attempts)
}

func TestUntilDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	strategy := UntilDone(ctx)
	assert.True(t, strategy(1, errTransient))

	cancel()
	assert.False(t, strategy(2, errTransient))
}

func TestErrorFilters(t *testing.T) {
	wrapped := errors.Wrap(errTransient, "GET /api/v1/payments/pay_1")

	retriable := RetriableErrors(errTransient)
	assert.True(t, retriable(1, errTransient))
	assert.True(t, retriable(1, wrapped))
	assert.False(t, retriable(1, errPermanent))

	nonRetriable := NonRetriableErrors(errPermanent)
	assert.False(t, nonRetriable(1, errPermanent))
	assert.False(t, nonRetriable(1, errors.Wrap(errPermanent, "wrapper")))
	assert.True(t, nonRetriable(1, wrapped))

	isTransient := func(err error) bool { return errors.Is(err, errTransient) }
	assert.True(t, RetriableIf(isTransient)(1, wrapped))
	assert.False(t, NonRetriableIf(isTransient)(1, wrapped))

	var calls int
	attempts, err := Retry(
		func() error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return errPermanent
		},
		RetriableIf(isTransient),
		Limit(5),
	)
	assert.ErrorIs(t, err, errPermanent)
	assert.EqualValues(t, 3, attempts)
}

func TestBackoff(t *testing.T) {
	sleeper := &testSleeper{}
	sleeperImpl = sleeper

	strategy := Backoff(backoff.BinaryExponential(250*time.Millisecond), time.Second)
	for attempts := uint(1); attempts <= 5; attempts++ {
		assert.True(t, strategy(attempts, errTransient))
	}

	assert.Equal(t, []time.Duration{
		250 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
		time.Second,
		time.Second,
	}, sleeper.sleepTimes)
}

func TestBackoffWithJitter(t *testing.T) {
	const iterations = 10000
	const delay = time.Millisecond

	sleeper := &testSleeper{}
	sleeperImpl = sleeper

	strategy := BackoffWithJitter(backoff.Constant(delay), delay, 0.1)
	for i := 0; i < iterations; i++ {
		assert.True(t, strategy(1, errTransient))
	}

	for _, d := range sleeper.sleepTimes {
		assert.InDelta(t, float64(delay), float64(d), 0.1*float64(delay))
	}
	assert.InDelta(t, float64(delay), float64(sleeper.Mean()), 0.01*float64(delay))

	// Uniform jitter over +/-10% averages out to a 5% absolute deviation.
	assert.InDelta(t, 0.05*float64(delay), float64(sleeper.AbsDeviation()), 0.005*float64(delay))
}

type testSleeper struct {
	sleepTimes []time.Duration
}

func (t *testSleeper) Sleep(d time.Duration) {
	t.sleepTimes = append(t.sleepTimes, d)
}

func (t *testSleeper) Total() (total time.Duration) {
	for _, d := range t.sleepTimes {
		total += d
	}
	return total
}

func (t *testSleeper) Mean() time.Duration {
	if len(t.sleepTimes) == 0 {
		return 0
	}
	return t.Total() / time.Duration(len(t.sleepTimes))
}

func (t *testSleeper) AbsDeviation() time.Duration {
	if len(t.sleepTimes) == 0 {
		return 0
	}

	mean := float64(t.Mean())
	var dev float64
	for _, d := range t.sleepTimes {
		dev += math.Abs(float64(d) - mean)
	}
	return time.Duration(dev / float64(len(t.sleepTimes)))
}
