package poller

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

var (
	// ErrInvalidPaymentId is returned when starting a session without a
	// payment id. No lookup is issued.
	ErrInvalidPaymentId = errors.New("payment id is required")

	// ErrSessionActive is returned by Result while the session hasn't ended.
	ErrSessionActive = errors.New("poll session is still active")

	// ErrSessionStopped is returned by Result when the session was stopped
	// before reaching a terminal status.
	ErrSessionStopped = errors.New("poll session was stopped")
)

// StatusLookup fetches the current status of a payment.
type StatusLookup interface {
	GetPaymentStatus(ctx context.Context, paymentId string) (*sablepay.PaymentStatus, error)
}

// Poller repeatedly looks up a payment's status until it reaches a terminal
// status, the lookup fails, or the caller stops it.
type Poller struct {
	log        *logrus.Entry
	conf       *conf
	lookup     StatusLookup
	scheduler  Scheduler
	listeners  []Listener
	collectors *collectors
}

// Option configures a Poller.
type Option func(p *pollerOpts)

type pollerOpts struct {
	scheduler  Scheduler
	listeners  []Listener
	registerer prometheus.Registerer
}

// WithScheduler overrides the wall clock scheduler.
func WithScheduler(scheduler Scheduler) Option {
	return func(o *pollerOpts) {
		o.scheduler = scheduler
	}
}

// WithListener adds a listener notified for every session.
func WithListener(listener Listener) Option {
	return func(o *pollerOpts) {
		o.listeners = append(o.listeners, listener)
	}
}

// WithRegisterer registers the poller's Prometheus collectors.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(o *pollerOpts) {
		o.registerer = registerer
	}
}

// New returns a new Poller.
func New(lookup StatusLookup, configProvider ConfigProvider, opts ...Option) *Poller {
	o := pollerOpts{
		scheduler: NewRealScheduler(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Poller{
		log:        logrus.StandardLogger().WithField("type", "poller/Poller"),
		conf:       configProvider(),
		lookup:     lookup,
		scheduler:  o.scheduler,
		listeners:  o.listeners,
		collectors: newCollectors(o.registerer),
	}
}

// StartOption configures a single session.
type StartOption func(s *Session)

// WithSessionListener adds a listener notified only for this session.
func WithSessionListener(listener Listener) StartOption {
	return func(s *Session) {
		s.listeners = append(s.listeners, listener)
	}
}

// Start begins polling the status of a payment and returns immediately. The
// first lookup is dispatched through the scheduler with no delay.
//
// ctx bounds the whole session, so it shouldn't be a request scoped context
// unless the session must end with the request.
//
// Returns ErrInvalidPaymentId if the id is empty once trimmed.
func (p *Poller) Start(ctx context.Context, paymentId string, opts ...StartOption) (*Session, error) {
	paymentId = strings.TrimSpace(paymentId)
	if len(paymentId) == 0 {
		return nil, ErrInvalidPaymentId
	}

	s := newSession(ctx, p, paymentId)
	s.listeners = append(s.listeners, p.listeners...)
	for _, opt := range opts {
		opt(s)
	}

	p.collectors.observeStart()

	p.log.WithField("payment_id", paymentId).Debug("poll session started")

	s.mu.Lock()
	s.pending = p.scheduler.Schedule(0, s.check)
	s.mu.Unlock()

	return s, nil
}

func (p *Poller) interval(ctx context.Context) time.Duration {
	interval := p.conf.interval.Get(ctx)
	if interval <= 0 {
		return DefaultInterval
	}
	return interval
}

func (p *Poller) lookupTimeout(ctx context.Context) time.Duration {
	timeout := p.conf.lookupTimeout.Get(ctx)
	if timeout < 0 {
		return 0
	}
	return timeout
}
