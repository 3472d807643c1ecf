package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sablepay/coffee-pos/pkg/retry/backoff"
)

// Strategy decides, after a failed attempt, whether another one should be
// made. Strategies may sleep before returning.
type Strategy func(attempts uint, err error) bool

// Limit allows at most maxAttempts attempts in total.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// UntilDone stops retrying once ctx is done.
func UntilDone(ctx context.Context) Strategy {
	return func(uint, error) bool {
		return ctx.Err() == nil
	}
}

// RetriableIf retries only errors accepted by isRetriable.
func RetriableIf(isRetriable func(err error) bool) Strategy {
	return func(_ uint, err error) bool {
		return isRetriable(err)
	}
}

// NonRetriableIf stops on errors accepted by isNonRetriable.
func NonRetriableIf(isNonRetriable func(err error) bool) Strategy {
	return func(_ uint, err error) bool {
		return !isNonRetriable(err)
	}
}

// RetriableErrors retries only errors matching one of targets.
func RetriableErrors(targets ...error) Strategy {
	return RetriableIf(func(err error) bool { return isAny(err, targets) })
}

// NonRetriableErrors stops on errors matching one of targets.
func NonRetriableErrors(targets ...error) Strategy {
	return NonRetriableIf(func(err error) bool { return isAny(err, targets) })
}

// Backoff sleeps for the delay strategy gives, capped at maxBackoff.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay randomly moved by up to
// jitter times itself in either direction, so 100ms with a jitter of 0.1
// sleeps between 90ms and 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := min(strategy(attempts), maxBackoff)
		if jitter > 0 {
			delay = time.Duration(float64(delay) * (1 + jitter*(2*rand.Float64()-1)))
		}

		sleeperImpl.Sleep(delay)
		return true
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = realSleeper{}
