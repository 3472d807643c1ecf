package sync

import (
	base "sync"
)

const pointsPerStripe = 200

// StripedLock maps an unbounded key space, like payment IDs, onto a fixed
// number of mutexes. Two keys may share a stripe, so holders must never take
// a second stripe while holding one.
type StripedLock struct {
	stripes []base.Mutex
	ring    *ring[int]
}

// NewStripedLock returns a StripedLock with the given number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	nodes := make(map[string]int, stripes)
	for i := 0; i < int(stripes); i++ {
		nodes[nodeName(i)] = i
	}

	return &StripedLock{
		stripes: make([]base.Mutex, stripes),
		ring:    newRing(nodes, pointsPerStripe),
	}
}

// Get returns the mutex guarding key.
func (l *StripedLock) Get(key string) *base.Mutex {
	return &l.stripes[l.ring.get(key)]
}

// Do runs fn while holding the stripe for key.
func (l *StripedLock) Do(key string, fn func()) {
	mu := l.Get(key)
	mu.Lock()
	defer mu.Unlock()

	fn()
}
