package pos

import (
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/pkg/errors"
)

const DefaultMaxCheckouts = 1000

var ErrCheckoutNotFound = errors.New("checkout not found")

// Registry keeps the checkouts of a running server. Once full, creating a
// checkout evicts the oldest one that isn't waiting on a payment.
type Registry struct {
	mu          sync.Mutex
	newCheckout func() *Checkout
	max         int
	checkouts   *linkedhashmap.Map
}

// NewRegistry returns a Registry that builds checkouts with newCheckout.
func NewRegistry(newCheckout func() *Checkout, max int) *Registry {
	if max <= 0 {
		max = DefaultMaxCheckouts
	}

	return &Registry{
		newCheckout: newCheckout,
		max:         max,
		checkouts:   linkedhashmap.New(),
	}
}

// Create adds a new checkout.
func (r *Registry) Create() *Checkout {
	checkout := r.newCheckout()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked()
	r.checkouts.Put(checkout.Id(), checkout)
	return checkout
}

// Get returns a checkout by id.
func (r *Registry) Get(id string) (*Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	value, ok := r.checkouts.Get(id)
	if !ok {
		return nil, ErrCheckoutNotFound
	}
	return value.(*Checkout), nil
}

// Remove resets and forgets a checkout.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	value, ok := r.checkouts.Get(id)
	if ok {
		r.checkouts.Remove(id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrCheckoutNotFound
	}
	value.(*Checkout).Reset()
	return nil
}

// Len returns the number of checkouts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.checkouts.Size()
}

// Close resets every checkout, stopping their poll sessions.
func (r *Registry) Close() {
	r.mu.Lock()
	var checkouts []*Checkout
	for _, value := range r.checkouts.Values() {
		checkouts = append(checkouts, value.(*Checkout))
	}
	r.checkouts.Clear()
	r.mu.Unlock()

	for _, checkout := range checkouts {
		checkout.Reset()
	}
}

func (r *Registry) evictLocked() {
	if r.checkouts.Size() < r.max {
		return
	}

	it := r.checkouts.Iterator()
	for it.Next() {
		checkout := it.Value().(*Checkout)
		switch checkout.State().Step {
		case StepCreating, StepQr:
			continue
		}

		r.checkouts.Remove(it.Key())
		return
	}
}
