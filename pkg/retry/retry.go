// Package retry runs actions until they succeed or a strategy gives up. The
// SablePay client uses it for transient request failures, and the postgres
// test harness for waiting on its container.
package retry

import "context"

// Action is a single attempt of a retriable operation.
type Action func() error

// Retry runs action until it succeeds or one of the strategies rejects its
// error, returning the number of attempts made and the last error.
//
// Strategies are consulted in order after every failed attempt. Ones that
// sleep belong last, so that a rejected error returns without waiting.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil {
			return attempts, nil
		}

		if !shouldRetry(attempts, err, strategies) {
			return attempts, err
		}
	}
}

// Do is Retry bound to ctx. The action receives ctx, and no attempt starts
// once ctx is done.
func Do(ctx context.Context, action func(ctx context.Context) error, strategies ...Strategy) (uint, error) {
	return Retry(
		func() error { return action(ctx) },
		append([]Strategy{UntilDone(ctx)}, strategies...)...,
	)
}

func shouldRetry(attempts uint, err error, strategies []Strategy) bool {
	for _, strategy := range strategies {
		if !strategy(attempts, err) {
			return false
		}
	}
	return true
}
