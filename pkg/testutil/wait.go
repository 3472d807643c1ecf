package testutil

import (
	"time"

	"github.com/pkg/errors"
)

// WaitFor polls condition every interval until it holds, giving up after
// timeout. The condition is always checked at least once.
func WaitFor(timeout, interval time.Duration, condition func() bool) error {
	if interval <= 0 || interval > timeout {
		return errors.Errorf("interval %v must be positive and within timeout %v", interval, timeout)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deadline := time.After(timeout)
	for {
		if condition() {
			return nil
		}

		select {
		case <-deadline:
			if condition() {
				return nil
			}
			return errors.Errorf("condition not met within %v", timeout)
		case <-ticker.C:
		}
	}
}
