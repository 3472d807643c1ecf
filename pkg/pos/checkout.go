package pos

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/data/payment"
	"github.com/sablepay/coffee-pos/pkg/metrics"
	"github.com/sablepay/coffee-pos/pkg/notify"
	"github.com/sablepay/coffee-pos/pkg/poller"
	"github.com/sablepay/coffee-pos/pkg/pointer"
	"github.com/sablepay/coffee-pos/pkg/qr"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

const (
	metricsStructName = "pos.checkout"

	MetadataSource = "example-app-coffee-shop"
)

var (
	ErrClientNotInitialized = errors.New("sablepay client is not initialized")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCheckoutInProgress   = errors.New("checkout is already in progress")
)

// Step is where a checkout is in its flow.
type Step uint8

const (
	StepMenu     Step = iota // Selecting items
	StepCreating             // Waiting on payment creation
	StepQr                   // QR shown, polling for a terminal status
	StepSuccess              // Payment completed
	StepFailed               // Payment failed, expired, or an error occurred
)

func (s Step) String() string {
	switch s {
	case StepMenu:
		return "menu"
	case StepCreating:
		return "creating"
	case StepQr:
		return "qr"
	case StepSuccess:
		return "success"
	case StepFailed:
		return "failed"
	}
	return "unknown"
}

// MarshalText renders the step by name.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// OutcomeNotifier reports ended payments to an external system.
type OutcomeNotifier interface {
	Enabled() bool
	Notify(ctx context.Context, outcome *notify.Outcome) error
}

// State is a point-in-time view of a checkout, suitable for rendering.
type State struct {
	CheckoutId string                          `json:"checkoutId"`
	OrderId    string                          `json:"orderId"`
	Step       Step                            `json:"step"`
	Label      string                          `json:"label,omitempty"`
	Items      []sablepay.PaymentItem          `json:"items"`
	ItemCount  int                             `json:"itemCount"`
	Total      decimal.Decimal                 `json:"total"`
	Payment    *sablepay.CreatePaymentResponse `json:"payment,omitempty"`
	Status     *sablepay.PaymentStatus         `json:"status,omitempty"`
	QrDataUrl  string                          `json:"qrDataUrl,omitempty"`
	Error      string                          `json:"error,omitempty"`
}

// Checkout drives one customer's order from item selection to a terminal
// payment outcome. It's safe for concurrent use.
type Checkout struct {
	log       *logrus.Entry
	id        string
	client    sablepay.Client
	poller    *poller.Poller
	store     payment.Store
	notifier  OutcomeNotifier
	qrOptions *qr.RenderOptions

	// Poll sessions outlive the request that started them.
	sessionCtx context.Context

	mu        sync.Mutex
	orderId   string
	step      Step
	cart      *Cart
	payment   *sablepay.CreatePaymentResponse
	status    *sablepay.PaymentStatus
	qrDataUrl string
	errMsg    string
	session   *poller.Session
}

// CheckoutOption configures a Checkout.
type CheckoutOption func(c *Checkout)

// WithNotifier reports terminal outcomes through notifier.
func WithNotifier(notifier OutcomeNotifier) CheckoutOption {
	return func(c *Checkout) {
		c.notifier = notifier
	}
}

// WithQrOptions overrides how payment QR codes are rendered.
func WithQrOptions(opts *qr.RenderOptions) CheckoutOption {
	return func(c *Checkout) {
		c.qrOptions = opts
	}
}

// WithSessionContext sets the context poll sessions run under.
func WithSessionContext(ctx context.Context) CheckoutOption {
	return func(c *Checkout) {
		c.sessionCtx = ctx
	}
}

// NewCheckout returns a Checkout on the menu step. A nil client is allowed;
// Pay then fails with ErrClientNotInitialized.
func NewCheckout(client sablepay.Client, p *poller.Poller, store payment.Store, opts ...CheckoutOption) *Checkout {
	id := uuid.NewString()
	c := &Checkout{
		log:        logrus.StandardLogger().WithField("type", "pos/Checkout").WithField("checkout_id", id),
		id:         id,
		client:     client,
		poller:     p,
		store:      store,
		qrOptions:  qr.DefaultRenderOptions(),
		sessionCtx: context.Background(),
		orderId:    uuid.NewString(),
		step:       StepMenu,
		cart:       NewCart(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Id returns the checkout's identifier.
func (c *Checkout) Id() string {
	return c.id
}

// ToggleItem adds or removes a menu item. Items can only change on the menu
// step.
func (c *Checkout) ToggleItem(name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepMenu {
		return false, ErrCheckoutInProgress
	}
	return c.cart.Toggle(name)
}

// Pay creates a payment for the cart, renders its QR code and starts polling
// its status. Creation errors move the checkout to the failed step and are
// also returned.
func (c *Checkout) Pay(ctx context.Context) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Pay")
	defer tracer.End()

	err := c.pay(ctx)
	if err != nil {
		tracer.OnError(err)
	}
	return err
}

func (c *Checkout) pay(ctx context.Context) error {
	if c.client == nil {
		return ErrClientNotInitialized
	}

	c.mu.Lock()
	if c.step != StepMenu {
		c.mu.Unlock()
		return ErrCheckoutInProgress
	}
	total := c.cart.Total()
	if !total.IsPositive() {
		c.mu.Unlock()
		return ErrEmptyCart
	}
	c.step = StepCreating
	c.errMsg = ""
	orderId := c.orderId
	req := &sablepay.CreatePaymentRequest{
		Amount:   total,
		Items:    c.cart.Items(),
		Metadata: map[string]string{"source": MetadataSource},
	}
	c.mu.Unlock()

	log := c.log.WithFields(logrus.Fields{
		"method":   "Pay",
		"order_id": orderId,
		"amount":   total.String(),
	})

	resp, err := c.client.CreatePayment(ctx, req)
	if err != nil {
		log.WithError(err).Info("failure creating payment")
		c.fail(orderId, err)
		return err
	}
	log = log.WithField("payment_id", resp.PaymentId)

	code, err := qr.GeneratePaymentQr(resp, c.qrOptions)
	var dataUrl string
	if err == nil {
		dataUrl, err = code.ToDataUrl()
	}
	if err != nil {
		log.WithError(err).Warn("failure rendering payment qr code")
		c.fail(orderId, err)
		return err
	}

	c.recordCreated(ctx, orderId, req, resp)

	c.mu.Lock()
	if c.orderId != orderId || c.step != StepCreating {
		// Reset while the payment was being created.
		c.mu.Unlock()
		log.Debug("checkout reset during payment creation")
		return nil
	}
	c.payment = resp
	c.qrDataUrl = dataUrl
	c.step = StepQr
	c.mu.Unlock()

	session, err := c.poller.Start(c.sessionCtx, resp.PaymentId, poller.WithSessionListener(&sessionListener{
		checkout: c,
		orderId:  orderId,
	}))
	if err != nil {
		log.WithError(err).Warn("failure starting status poller")
		c.fail(orderId, err)
		return err
	}

	c.mu.Lock()
	if c.orderId != orderId {
		c.mu.Unlock()
		session.Stop()
		return nil
	}
	if session.Active() {
		c.session = session
	}
	c.mu.Unlock()

	log.Debug("payment created, polling for status")
	return nil
}

func (c *Checkout) fail(orderId string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.orderId != orderId {
		return
	}
	c.step = StepFailed
	c.errMsg = err.Error()
}

// Reset stops any polling and returns to an empty menu with a new order id.
func (c *Checkout) Reset() {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.orderId = uuid.NewString()
	c.step = StepMenu
	c.cart.Clear()
	c.payment = nil
	c.status = nil
	c.qrDataUrl = ""
	c.errMsg = ""
	c.mu.Unlock()

	if session != nil {
		session.Stop()
	}
}

// State returns a snapshot of the checkout.
func (c *Checkout) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return &State{
		CheckoutId: c.id,
		OrderId:    c.orderId,
		Step:       c.step,
		Label:      c.labelLocked(),
		Items:      c.cart.Items(),
		ItemCount:  c.cart.Count(),
		Total:      c.cart.Total(),
		Payment:    c.payment,
		Status:     c.status,
		QrDataUrl:  c.qrDataUrl,
		Error:      c.errMsg,
	}
}

// Session returns the active poll session, if any.
func (c *Checkout) Session() *poller.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session
}

func (c *Checkout) labelLocked() string {
	switch c.step {
	case StepQr:
		return "Awaiting Payment"
	case StepSuccess:
		return "Payment Completed"
	case StepFailed:
		if c.status != nil && sablepay.IsExpired(c.status.Status) {
			return "Payment Expired"
		}
		return "Payment Failed"
	}
	return ""
}

func (c *Checkout) recordCreated(ctx context.Context, orderId string, req *sablepay.CreatePaymentRequest, resp *sablepay.CreatePaymentResponse) {
	if c.store == nil {
		return
	}

	status := resp.Status
	if len(status) == 0 {
		status = sablepay.StatusPending
	}

	var itemCount uint32
	for _, item := range req.Items {
		itemCount += item.Quantity
	}

	amount := resp.Amount
	if !amount.IsPositive() {
		amount = req.Amount
	}

	record := &payment.Record{
		PaymentId:  resp.PaymentId,
		OrderId:    orderId,
		Amount:     amount,
		ItemCount:  itemCount,
		PaymentUrl: resp.PaymentUrl,
		Status:     status,
		State:      payment.StateFromStatus(status),
		ExpiresAt:  pointer.TimeCopy(resp.ExpiresAt),
	}
	if err := c.store.Put(ctx, record); err != nil {
		c.log.WithError(err).WithField("payment_id", resp.PaymentId).Warn("failure saving payment record")
	}
}

func (c *Checkout) recordStatus(ctx context.Context, status *sablepay.PaymentStatus) {
	if c.store == nil {
		return
	}

	log := c.log.WithField("payment_id", status.PaymentId)

	record, err := c.store.Get(ctx, status.PaymentId)
	if err != nil {
		log.WithError(err).Debug("payment record unavailable")
		return
	}

	if record.Status == status.Status {
		return
	}

	record.Status = status.Status
	record.State = payment.StateFromStatus(status.Status)
	if len(status.TxHash) > 0 {
		record.TxHash = pointer.String(status.TxHash)
	}

	err = c.store.Update(ctx, record)
	switch err {
	case nil, payment.ErrTerminal:
	default:
		log.WithError(err).Warn("failure updating payment record")
	}
}

type sessionListener struct {
	checkout *Checkout
	orderId  string
}

// OnSnapshot implements poller.Listener.OnSnapshot
func (l *sessionListener) OnSnapshot(_ *poller.Session, status *sablepay.PaymentStatus) {
	c := l.checkout

	c.mu.Lock()
	current := c.orderId == l.orderId
	if current {
		c.status = status
	}
	c.mu.Unlock()

	c.recordStatus(c.sessionCtx, status)
}

// OnEnd implements poller.Listener.OnEnd
func (l *sessionListener) OnEnd(s *poller.Session) {
	c := l.checkout

	c.mu.Lock()
	if c.orderId == l.orderId {
		switch s.Outcome() {
		case poller.OutcomeSucceeded:
			c.step = StepSuccess
		case poller.OutcomeFailed:
			c.step = StepFailed
		case poller.OutcomeErrored:
			c.step = StepFailed
			if _, err := s.Result(); err != nil {
				c.errMsg = err.Error()
			}
		}
		if c.session == s {
			c.session = nil
		}
	}
	c.mu.Unlock()

	if s.Outcome() == poller.OutcomeStopped || c.notifier == nil || !c.notifier.Enabled() {
		return
	}

	outcome := &notify.Outcome{
		PaymentId: s.PaymentId(),
		OrderId:   l.orderId,
		Outcome:   s.Outcome().String(),
		Lookups:   s.Lookups(),
		EndedAt:   s.EndedAt(),
	}
	if latest := s.Latest(); latest != nil {
		outcome.Status = latest.Status
		outcome.TxHash = latest.TxHash
		if latest.Amount.Valid {
			outcome.Amount = latest.Amount.Decimal.String()
		}
	}

	// Notify logs and counts its own failures.
	_ = c.notifier.Notify(c.sessionCtx, outcome)
}
