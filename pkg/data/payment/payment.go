package payment

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/sablepay/coffee-pos/pkg/pointer"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

type State uint8

const (
	StateUnknown   State = iota
	StatePending         // Created, and no terminal status observed yet
	StateSucceeded       // Completed or confirmed
	StateFailed          // Failed, expired or cancelled
)

// Record is the local history entry for a payment created by the point of
// sale. The payment itself lives with SablePay.
type Record struct {
	Id uint64

	PaymentId string
	OrderId   string

	Amount    decimal.Decimal
	ItemCount uint32

	PaymentUrl string

	Status string
	State  State
	TxHash *string

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

// StateFromStatus maps a SablePay status label to a record state.
func StateFromStatus(status string) State {
	switch sablepay.ClassifyStatus(status) {
	case sablepay.OutcomeSucceeded:
		return StateSucceeded
	case sablepay.OutcomeFailed:
		return StateFailed
	}
	return StatePending
}

func (r *Record) Validate() error {
	if len(r.PaymentId) == 0 {
		return errors.New("payment id is required")
	}

	if len(r.OrderId) == 0 {
		return errors.New("order id is required")
	}

	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}

	if len(r.Status) == 0 {
		return errors.New("status is required")
	}

	if r.State == StateUnknown {
		return errors.New("state is required")
	}

	if r.State != StateFromStatus(r.Status) {
		return errors.Errorf("state %s doesn't match status %s", r.State, r.Status)
	}

	if r.TxHash != nil && len(*r.TxHash) == 0 {
		return errors.New("tx hash cannot be empty when set")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		PaymentId: r.PaymentId,
		OrderId:   r.OrderId,

		Amount:    r.Amount,
		ItemCount: r.ItemCount,

		PaymentUrl: r.PaymentUrl,

		Status: r.Status,
		State:  r.State,
		TxHash: pointer.StringCopy(r.TxHash),

		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		ExpiresAt: pointer.TimeCopy(r.ExpiresAt),
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.PaymentId = r.PaymentId
	dst.OrderId = r.OrderId

	dst.Amount = r.Amount
	dst.ItemCount = r.ItemCount

	dst.PaymentUrl = r.PaymentUrl

	dst.Status = r.Status
	dst.State = r.State
	dst.TxHash = pointer.StringCopy(r.TxHash)

	dst.CreatedAt = r.CreatedAt
	dst.UpdatedAt = r.UpdatedAt
	dst.ExpiresAt = pointer.TimeCopy(r.ExpiresAt)
}

// IsTerminal returns whether the record can no longer change.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
