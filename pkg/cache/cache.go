package cache

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrKeyExists      = errors.New("key already exists in cache")
	ErrWeightTooLarge = errors.New("item weight exceeds cache budget")
)

// Cache is a weight bounded, least recently used cache. Inserting past the
// budget evicts the least recently retrieved items first.
type Cache[V any] struct {
	log *logrus.Entry

	mu     sync.Mutex
	head   *node[V]
	tail   *node[V]
	lookup map[string]*node[V]
	weight int
	budget int
}

type node[V any] struct {
	next   *node[V]
	prev   *node[V]
	key    string
	value  V
	weight int
}

// New returns an empty cache holding at most budget total weight.
func New[V any](name string, budget int) *Cache[V] {
	return &Cache[V]{
		log:    logrus.StandardLogger().WithFields(logrus.Fields{"type": "cache", "name": name}),
		lookup: make(map[string]*node[V]),
		budget: budget,
	}
}

// Weight returns the total weight of cached items.
func (c *Cache[V]) Weight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weight
}

// Budget returns the maximum total weight.
func (c *Cache[V]) Budget() int {
	return c.budget
}

// Len returns the number of cached items.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.lookup)
}

// Insert adds an item as the most recently used one.
//
// Returns ErrKeyExists if key is already cached, and ErrWeightTooLarge if the
// item could never fit.
func (c *Cache[V]) Insert(key string, value V, weight int) error {
	if weight > c.budget {
		return ErrWeightTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lookup[key]; ok {
		return ErrKeyExists
	}

	n := &node[V]{
		key:    key,
		value:  value,
		weight: weight,
	}
	c.pushFrontLocked(n)
	c.lookup[key] = n
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.unlinkLocked(evicted)
		delete(c.lookup, evicted.key)
		c.weight -= evicted.weight

		c.log.WithFields(logrus.Fields{
			"key":    evicted.key,
			"weight": evicted.weight,
			"spare":  c.budget - c.weight,
		}).Trace("evicted")
	}

	return nil
}

// Retrieve returns a cached item and marks it as the most recently used one.
func (c *Cache[V]) Retrieve(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.lookup[key]
	if !ok {
		var zero V
		return zero, false
	}

	if n != c.head {
		c.unlinkLocked(n)
		c.pushFrontLocked(n)
	}
	return n.value, true
}

// Remove drops key from the cache, if present.
func (c *Cache[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.lookup[key]
	if !ok {
		return
	}

	c.unlinkLocked(n)
	delete(c.lookup, key)
	c.weight -= n.weight
}

// Clear removes every item.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[string]*node[V])
	c.weight = 0
}

func (c *Cache[V]) pushFrontLocked(n *node[V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *Cache[V]) unlinkLocked(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}
