package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sablepay/coffee-pos/pkg/pointer"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

const (
	paymentUrlPrefix = "https://pay.sablepay.io/p/"
	paymentLifetime  = 15 * time.Minute
)

type payment struct {
	created  sablepay.CreatePaymentResponse
	statuses []string
	err      error
	lookups  int
}

// Client is an in memory sablepay.Client. Each payment walks through a
// scripted list of statuses, one per lookup, and then stays on the last one.
type Client struct {
	mu        sync.Mutex
	payments  map[string]*payment
	requests  []*sablepay.CreatePaymentRequest
	createErr error
}

// NewClient returns a new in memory sablepay.Client
func NewClient() *Client {
	return &Client{
		payments: make(map[string]*payment),
	}
}

// CreatePayment implements sablepay.Client.CreatePayment
func (c *Client) CreatePayment(_ context.Context, req *sablepay.CreatePaymentRequest) (*sablepay.CreatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.createErr != nil {
		return nil, c.createErr
	}

	cloned := *req
	cloned.Items = append([]sablepay.PaymentItem(nil), req.Items...)
	c.requests = append(c.requests, &cloned)

	paymentId := "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	resp := sablepay.CreatePaymentResponse{
		PaymentId:  paymentId,
		Amount:     req.Amount,
		Status:     sablepay.StatusPending,
		PaymentUrl: paymentUrlPrefix + paymentId,
		ExpiresAt:  pointer.Time(time.Now().Add(paymentLifetime).UTC()),
	}
	c.payments[paymentId] = &payment{
		created:  resp,
		statuses: []string{sablepay.StatusPending},
	}

	return &resp, nil
}

// GetPaymentStatus implements sablepay.Client.GetPaymentStatus
func (c *Client) GetPaymentStatus(_ context.Context, paymentId string) (*sablepay.PaymentStatus, error) {
	paymentId = strings.TrimSpace(paymentId)
	if len(paymentId) == 0 {
		return nil, sablepay.ErrInvalidPaymentId
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.payments[paymentId]
	if !ok {
		return nil, sablepay.ErrPaymentNotFound
	}

	item.lookups++
	if item.err != nil {
		return nil, item.err
	}

	status := item.statuses[0]
	if len(item.statuses) > 1 {
		item.statuses = item.statuses[1:]
	}

	now := time.Now().UTC()
	res := &sablepay.PaymentStatus{
		PaymentId: paymentId,
		Status:    status,
		ExpiresAt: pointer.TimeCopy(item.created.ExpiresAt),
		CreatedAt: pointer.Time(now),
		UpdatedAt: pointer.Time(now),
	}
	res.Amount.Decimal = item.created.Amount
	res.Amount.Valid = true

	if sablepay.IsCompleted(status) {
		res.PaidAmount = res.Amount
		res.PaidToken = "USDC"
		res.TxHash = "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	return res, nil
}

// AddPayment registers a payment that wasn't created through the client.
func (c *Client) AddPayment(paymentId string, statuses ...string) {
	if len(statuses) == 0 {
		statuses = []string{sablepay.StatusPending}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.payments[paymentId] = &payment{
		created: sablepay.CreatePaymentResponse{
			PaymentId: paymentId,
			Status:    statuses[0],
		},
		statuses: append([]string(nil), statuses...),
	}
}

// SetStatuses scripts the statuses returned by the next lookups of a payment.
func (c *Client) SetStatuses(paymentId string, statuses ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.payments[paymentId]; ok && len(statuses) > 0 {
		item.statuses = append([]string(nil), statuses...)
	}
}

// SetLookupError makes every following lookup of a payment fail with err. A
// nil err clears it.
func (c *Client) SetLookupError(paymentId string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.payments[paymentId]; ok {
		item.err = err
	}
}

// SetCreateError makes every following CreatePayment call fail with err. A
// nil err clears it.
func (c *Client) SetCreateError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.createErr = err
}

// Lookups returns how many times a payment's status was looked up.
func (c *Client) Lookups(paymentId string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.payments[paymentId]; ok {
		return item.lookups
	}
	return 0
}

// Requests returns every accepted create payment request, oldest first.
func (c *Client) Requests() []*sablepay.CreatePaymentRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*sablepay.CreatePaymentRequest(nil), c.requests...)
}

// PaymentIds returns the ids of every known payment.
func (c *Client) PaymentIds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]string, 0, len(c.payments))
	for paymentId := range c.payments {
		res = append(res, paymentId)
	}
	return res
}
