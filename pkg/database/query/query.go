// Package query holds the paging options shared by the payment record stores.
package query

import (
	"github.com/pkg/errors"
)

var (
	ErrQueryNotSupported = errors.New("the requested query option is not supported")
	ErrInvalidCursor     = errors.New("cursor must be 8 bytes")
)

// SupportedOptions is the set of options a store accepts for a query.
type SupportedOptions byte

const (
	CanLimitResults SupportedOptions = 1 << iota
	CanSortBy
	CanQueryByCursor
)

// QueryOptions pages through records keyed by an auto-incrementing id.
type QueryOptions struct {
	Supported SupportedOptions

	SortBy Ordering
	Limit  uint64
	Cursor Cursor
}

type Option func(*QueryOptions) error

// Apply applies opts in order, stopping at the first failure.
func (qo *QueryOptions) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(qo); err != nil {
			return err
		}
	}
	return nil
}

func (qo *QueryOptions) supports(option SupportedOptions) error {
	if qo.Supported&option != option {
		return ErrQueryNotSupported
	}
	return nil
}

func WithDirection(val Ordering) Option {
	return func(qo *QueryOptions) error {
		if err := qo.supports(CanSortBy); err != nil {
			return err
		}
		qo.SortBy = val
		return nil
	}
}

func WithLimit(val uint64) Option {
	return func(qo *QueryOptions) error {
		if err := qo.supports(CanLimitResults); err != nil {
			return err
		}
		qo.Limit = val
		return nil
	}
}

// WithCursor starts the page after the record the cursor points at. An empty
// cursor starts from the beginning.
func WithCursor(val Cursor) Option {
	return func(qo *QueryOptions) error {
		if err := qo.supports(CanQueryByCursor); err != nil {
			return err
		}
		if len(val) != 0 && len(val) != cursorSize {
			return ErrInvalidCursor
		}
		qo.Cursor = val
		return nil
	}
}
