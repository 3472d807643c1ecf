package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sablepay/coffee-pos/pkg/data/payment"
	"github.com/sablepay/coffee-pos/pkg/database/query"
	"github.com/sablepay/coffee-pos/pkg/pointer"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*payment.Record
}

// New returns a new in memory payment.Store
func New() payment.Store {
	return &store{}
}

// Put implements payment.Store.Put
func (s *store) Put(_ context.Context, data *payment.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByPaymentId(data.PaymentId); item != nil {
		return payment.ErrAlreadyExists
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	data.UpdatedAt = data.CreatedAt

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Update implements payment.Store.Update
func (s *store) Update(_ context.Context, data *payment.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByPaymentId(data.PaymentId)
	if item == nil {
		return payment.ErrNotFound
	}

	if item.State.IsTerminal() {
		return payment.ErrTerminal
	}

	item.Status = data.Status
	item.State = data.State
	item.TxHash = pointer.StringCopy(data.TxHash)
	item.UpdatedAt = time.Now()

	item.CopyTo(data)

	return nil
}

// Get implements payment.Store.Get
func (s *store) Get(_ context.Context, paymentId string) (*payment.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByPaymentId(paymentId)
	if item == nil {
		return nil, payment.ErrNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAll implements payment.Store.GetAll
func (s *store) GetAll(_ context.Context, opts ...query.Option) ([]*payment.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]*payment.Record, len(s.records))
	copy(items, s.records)

	sort.Slice(items, func(i, j int) bool {
		if req.SortBy == query.Descending {
			return items[i].Id > items[j].Id
		}
		return items[i].Id < items[j].Id
	})

	if len(req.Cursor) > 0 {
		cursor := req.Cursor.ToUint64()

		var filtered []*payment.Record
		for _, item := range items {
			if req.SortBy == query.Descending && item.Id < cursor {
				filtered = append(filtered, item)
			} else if req.SortBy == query.Ascending && item.Id > cursor {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	if len(items) == 0 {
		return nil, payment.ErrNotFound
	}

	if req.Limit > 0 && uint64(len(items)) > req.Limit {
		items = items[:req.Limit]
	}

	return cloneSlice(items), nil
}

// CountByState implements payment.Store.CountByState
func (s *store) CountByState(_ context.Context, state payment.State) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count uint64
	for _, item := range s.records {
		if item.State == state {
			count++
		}
	}
	return count, nil
}

func (s *store) findByPaymentId(paymentId string) *payment.Record {
	for _, item := range s.records {
		if item.PaymentId == paymentId {
			return item
		}
	}
	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
	s.records = nil
}

func cloneSlice(items []*payment.Record) []*payment.Record {
	var res []*payment.Record
	for _, item := range items {
		cloned := item.Clone()
		res = append(res, &cloned)
	}
	return res
}
