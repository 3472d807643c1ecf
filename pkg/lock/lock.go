package lock

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrManagerClosed is returned when creating or acquiring locks from a
	// closed Manager.
	ErrManagerClosed = errors.New("lock manager is closed")

	// ErrConcurrentAcquire is returned when Acquire is called on a handle that
	// already holds, or is waiting on, its lock.
	ErrConcurrentAcquire = errors.New("cannot call Acquire concurrently")
)

// Manager creates and manages locks.
//
// Unlike a sync.Mutex, a DistributedLock guards a name rather than a value.
// Two DistributedLocks for the same name are mutually exclusive, even when
// they're produced by the same Manager. This lets a single process use the
// same Manager to claim work that may also be claimed by other replicas.
type Manager interface {
	// Create creates an unlocked DistributedLock for a specific key.
	Create(ctx context.Context, name string) (DistributedLock, error)

	// Close releases every lock held through the Manager.
	Close() error
}

// DistributedLock is a handle to a distributed lock that spans across multiple
// processes.
type DistributedLock interface {
	// Acquire attempts to acquire the lock, blocking until the lock has been
	// successfully acquired or ctx is done.
	//
	// The returned channel is a channel that will be closed when the lock is lost.
	// The lock can be lost when Unlock() is called, the Manager is closed, or
	// the underlying implementation detects that the lock _might_ have been lost.
	Acquire(ctx context.Context) (<-chan struct{}, error)

	// Unlock unlocks the lock, if the lock is held.
	//
	// Unlock is idempotent.
	Unlock(ctx context.Context) error

	// IsLocked returns whether the lock is held by this handle.
	IsLocked() bool
}
