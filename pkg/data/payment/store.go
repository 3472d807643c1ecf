package payment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sablepay/coffee-pos/pkg/database/query"
)

var (
	ErrNotFound      = errors.New("payment record not found")
	ErrAlreadyExists = errors.New("payment record already exists")
	ErrTerminal      = errors.New("payment record is in a terminal state")
)

type Store interface {
	// Put creates a payment record
	//
	// Returns ErrAlreadyExists if a record already exists.
	Put(ctx context.Context, record *Record) error

	// Update updates the status of a payment record
	//
	// Returns ErrNotFound if no record exists, and ErrTerminal if the stored
	// record already reached a terminal state.
	Update(ctx context.Context, record *Record) error

	// Get finds the payment record for a given payment ID
	//
	// Returns ErrNotFound if no record is found.
	Get(ctx context.Context, paymentId string) (*Record, error)

	// GetAll returns a page of payment records, ordered by creation
	//
	// Returns ErrNotFound if no record is found.
	GetAll(ctx context.Context, opts ...query.Option) ([]*Record, error)

	// CountByState counts all payment records in a provided state
	CountByState(ctx context.Context, state State) (uint64, error)
}
