package memory

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/lock"
)

// LockManager hands out locks that are exclusive within the current process.
type LockManager struct {
	log *logrus.Entry

	mu     sync.Mutex
	closed bool
	slots  map[string]chan struct{}
	held   map[*Lock]struct{}
}

// NewLockManager returns a new in-process lock.Manager.
func NewLockManager() *LockManager {
	return &LockManager{
		log:   logrus.StandardLogger().WithField("type", "lock/memory"),
		slots: make(map[string]chan struct{}),
		held:  make(map[*Lock]struct{}),
	}
}

// Create implements lock.Manager.Create.
func (lm *LockManager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.closed {
		return nil, lock.ErrManagerClosed
	}

	slot, ok := lm.slots[name]
	if !ok {
		slot = make(chan struct{}, 1)
		lm.slots[name] = slot
	}

	return &Lock{
		lm:   lm,
		name: name,
		slot: slot,
	}, nil
}

// Close implements lock.Manager.Close.
func (lm *LockManager) Close() error {
	lm.mu.Lock()
	if lm.closed {
		lm.mu.Unlock()
		return nil
	}
	lm.closed = true

	held := make([]*Lock, 0, len(lm.held))
	for l := range lm.held {
		held = append(held, l)
	}
	lm.mu.Unlock()

	for _, l := range held {
		l.Unlock(context.Background())
	}
	return nil
}

func (lm *LockManager) track(l *Lock, held bool) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if held {
		if lm.closed {
			return false
		}
		lm.held[l] = struct{}{}
	} else {
		delete(lm.held, l)
	}
	return true
}

// Lock is an in-process lock.DistributedLock.
type Lock struct {
	lm   *LockManager
	name string
	slot chan struct{}

	mu        sync.Mutex
	acquiring bool
	lostCh    chan struct{}
}

// Acquire implements lock.DistributedLock.Acquire.
func (l *Lock) Acquire(ctx context.Context) (<-chan struct{}, error) {
	l.mu.Lock()
	if l.acquiring || l.lostCh != nil {
		l.mu.Unlock()
		return nil, lock.ErrConcurrentAcquire
	}
	l.acquiring = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.acquiring = false
		l.mu.Unlock()
	}()

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if !l.lm.track(l, true) {
		<-l.slot
		return nil, lock.ErrManagerClosed
	}

	lostCh := make(chan struct{})

	l.mu.Lock()
	l.lostCh = lostCh
	l.mu.Unlock()

	l.lm.log.WithField("name", l.name).Trace("lock acquired")

	return lostCh, nil
}

// Unlock implements lock.DistributedLock.Unlock.
func (l *Lock) Unlock(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lostCh == nil {
		return nil
	}

	close(l.lostCh)
	l.lostCh = nil
	<-l.slot
	l.lm.track(l, false)

	return nil
}

// IsLocked implements lock.DistributedLock.IsLocked.
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.lostCh != nil
}
