package redis

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/lock"
)

const (
	minLockTTL = time.Second
	maxLockTTL = time.Minute

	defaultAcquireRetryDelay = 50 * time.Millisecond
)

var (
	// Extends the lock only if we still own it.
	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

	// Deletes the lock only if we still own it.
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
)

// LockManager hands out locks backed by a Redis key per lock name. Ownership
// is tracked with a random token, and held locks are kept alive by refreshing
// their TTL in the background.
type LockManager struct {
	log     *logrus.Entry
	client  redis.UniversalClient
	rootKey string
	lockTTL time.Duration

	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewLockManager returns a new Redis backed lock.Manager.
func NewLockManager(client redis.UniversalClient, rootKey string, lockTTL time.Duration) (*LockManager, error) {
	if lockTTL < minLockTTL || lockTTL > maxLockTTL {
		return nil, errors.Errorf("invalid lock ttl: %s (must be [%s, %s])", lockTTL, minLockTTL, maxLockTTL)
	}

	return &LockManager{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type": "lock/redis",
			"root": rootKey,
		}),
		client:  client,
		rootKey: rootKey,
		lockTTL: lockTTL,
		closeCh: make(chan struct{}),
	}, nil
}

// Create implements lock.Manager.Create.
func (lm *LockManager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	select {
	case <-lm.closeCh:
		return nil, lock.ErrManagerClosed
	default:
	}

	key := path.Join(lm.rootKey, name)
	return &Lock{
		log: lm.log.WithField("key", key),
		lm:  lm,
		key: key,
	}, nil
}

// Close implements lock.Manager.Close. Every lock held through the manager
// stops refreshing and is released.
func (lm *LockManager) Close() error {
	lm.closeOnce.Do(func() {
		close(lm.closeCh)
	})
	return nil
}

// Lock is a Redis backed lock.DistributedLock.
type Lock struct {
	log *logrus.Entry
	lm  *LockManager
	key string

	mu        sync.Mutex
	acquiring bool
	token     string
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// Acquire implements lock.DistributedLock.Acquire.
func (l *Lock) Acquire(ctx context.Context) (<-chan struct{}, error) {
	l.mu.Lock()
	if l.acquiring || l.token != "" {
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

	token := uuid.NewString()
	for {
		select {
		case <-l.lm.closeCh:
			return nil, lock.ErrManagerClosed
		default:
		}

		ok, err := l.lm.client.SetNX(ctx, l.key, token, l.lm.lockTTL).Result()
		if err != nil {
			return nil, errors.Wrap(err, "error setting lock key")
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-l.lm.closeCh:
			return nil, lock.ErrManagerClosed
		case <-time.After(defaultAcquireRetryDelay):
		}
	}

	lostCh := make(chan struct{})
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	l.mu.Lock()
	l.token = token
	l.stopCh = stopCh
	l.doneCh = doneCh
	l.mu.Unlock()

	l.log.Debug("lock acquired")

	go l.keepAlive(token, lostCh, stopCh, doneCh)

	return lostCh, nil
}

func (l *Lock) keepAlive(token string, lostCh, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer close(lostCh)

	ticker := time.NewTicker(l.lm.lockTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-l.lm.closeCh:
			l.release(context.Background(), token)
			l.clear(token)
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.lm.lockTTL/3)
			refreshed, err := refreshScript.Run(ctx, l.lm.client, []string{l.key}, token, l.lm.lockTTL.Milliseconds()).Int64()
			cancel()

			if err != nil {
				l.log.WithError(err).Warn("failure refreshing lock, releasing it")
				l.clear(token)
				return
			}
			if refreshed == 0 {
				l.log.Warn("lock key is no longer owned by us, cowardly unlocking")
				l.clear(token)
				return
			}
		}
	}
}

func (l *Lock) release(ctx context.Context, token string) error {
	_, err := releaseScript.Run(ctx, l.lm.client, []string{l.key}, token).Result()
	if err != nil {
		l.log.WithError(err).Warn("failure releasing lock")
		return errors.Wrap(err, "error releasing lock key")
	}
	return nil
}

func (l *Lock) clear(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.token == token {
		l.token = ""
		l.stopCh = nil
		l.doneCh = nil
	}
}

// Unlock implements lock.DistributedLock.Unlock.
func (l *Lock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	stopCh := l.stopCh
	doneCh := l.doneCh
	l.token = ""
	l.stopCh = nil
	l.doneCh = nil
	l.mu.Unlock()

	if token == "" {
		return nil
	}

	close(stopCh)
	<-doneCh

	return l.release(ctx, token)
}

// IsLocked implements lock.DistributedLock.IsLocked.
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.token != ""
}
