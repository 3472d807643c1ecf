package sablepay

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PaymentItem is a line item attached to a payment.
type PaymentItem struct {
	Name     string          `json:"name"`
	Quantity uint32          `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

// CreatePaymentRequest asks SablePay to create a payment.
type CreatePaymentRequest struct {
	Amount   decimal.Decimal   `json:"amount"`
	Items    []PaymentItem     `json:"items,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (r *CreatePaymentRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	for i, item := range r.Items {
		if len(strings.TrimSpace(item.Name)) == 0 {
			return errors.Wrapf(ErrInvalidItem, "item %d has no name", i)
		}
		if item.Quantity == 0 {
			return errors.Wrapf(ErrInvalidItem, "item %d has no quantity", i)
		}
		if item.Amount.IsNegative() {
			return errors.Wrapf(ErrInvalidItem, "item %d has a negative amount", i)
		}
	}

	return nil
}

// CreatePaymentResponse describes a created payment. PaymentUrl and QrData are
// owned by SablePay and are rendered as is.
type CreatePaymentResponse struct {
	PaymentId  string          `json:"paymentId"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	PaymentUrl string          `json:"paymentUrl,omitempty"`
	QrData     string          `json:"qrData,omitempty"`
	ExpiresAt  *time.Time      `json:"expiresAt,omitempty"`
}

// QrPayload returns the content to encode in the payment QR code.
func (r *CreatePaymentResponse) QrPayload() string {
	if len(r.QrData) > 0 {
		return r.QrData
	}
	return r.PaymentUrl
}

// PaymentStatus is a point-in-time snapshot of a payment. Each lookup yields
// a new value, and values are never mutated once returned.
type PaymentStatus struct {
	PaymentId  string              `json:"paymentId"`
	Status     string              `json:"status"`
	Amount     decimal.NullDecimal `json:"amount"`
	PaidAmount decimal.NullDecimal `json:"paidAmount"`
	PaidToken  string              `json:"paidToken,omitempty"`
	TxHash     string              `json:"txHash,omitempty"`
	ExpiresAt  *time.Time          `json:"expiresAt,omitempty"`
	CreatedAt  *time.Time          `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time          `json:"updatedAt,omitempty"`
}

// Outcome classifies the snapshot's status label.
func (s *PaymentStatus) Outcome() Outcome {
	return ClassifyStatus(s.Status)
}
