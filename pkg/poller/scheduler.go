package poller

import (
	"time"
)

// CancelFunc cancels a scheduled function. It's safe to call more than once,
// and has no effect once the function has started running.
type CancelFunc func()

// Scheduler runs functions after a delay.
type Scheduler interface {
	// Schedule runs fn once, on its own goroutine, after delay.
	Schedule(delay time.Duration, fn func()) CancelFunc
}

type realScheduler struct{}

// NewRealScheduler returns a Scheduler backed by wall clock timers.
func NewRealScheduler() Scheduler {
	return realScheduler{}
}

// Schedule implements Scheduler.Schedule
func (realScheduler) Schedule(delay time.Duration, fn func()) CancelFunc {
	if delay < 0 {
		delay = 0
	}

	timer := time.AfterFunc(delay, fn)
	return func() {
		timer.Stop()
	}
}
