package poller

import (
	"sort"
	"sync"
	"time"
)

type manualTask struct {
	id        uint64
	at        time.Duration
	fn        func()
	cancelled bool
}

// ManualScheduler is a Scheduler driven by simulated time. Nothing runs until
// Advance is called, which makes it suitable for tests that need exact control
// over when re-checks fire.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	nextId uint64
	tasks  []*manualTask
}

// NewManualScheduler returns a ManualScheduler at simulated time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule implements Scheduler.Schedule
func (s *ManualScheduler) Schedule(delay time.Duration, fn func()) CancelFunc {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextId++
	task := &manualTask{
		id: s.nextId,
		at: s.now + delay,
		fn: fn,
	}
	s.tasks = append(s.tasks, task)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		task.cancelled = true
		s.removeLocked(task)
	}
}

// Advance moves simulated time forward by d, running every task that becomes
// due in order. Tasks run synchronously on the calling goroutine, outside the
// scheduler's lock, and tasks they schedule run too if they fall due within d.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		task := s.nextDueLocked(target)
		if task == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = task.at
		s.removeLocked(task)
		s.mu.Unlock()

		task.fn()
	}
}

// Pending returns the number of scheduled tasks that haven't run or been
// cancelled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}

// Now returns the simulated time elapsed since the scheduler was created.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.now
}

func (s *ManualScheduler) nextDueLocked(target time.Duration) *manualTask {
	var due []*manualTask
	for _, task := range s.tasks {
		if !task.cancelled && task.at <= target {
			due = append(due, task)
		}
	}
	if len(due) == 0 {
		return nil
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].id < due[j].id
		}
		return due[i].at < due[j].at
	})
	return due[0]
}

func (s *ManualScheduler) removeLocked(task *manualTask) {
	for i, candidate := range s.tasks {
		if candidate == task {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}
