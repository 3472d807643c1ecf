package poller

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/metrics"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

// Outcome is how a poll session ended, if it has.
type Outcome uint8

const (
	OutcomePending   Outcome = iota // Still polling
	OutcomeSucceeded                // Terminal success status observed
	OutcomeFailed                   // Terminal failure status observed
	OutcomeErrored                  // A lookup failed
	OutcomeStopped                  // Stopped by the caller
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeErrored:
		return "errored"
	case OutcomeStopped:
		return "stopped"
	}
	return "unknown"
}

// Session is a single payment's poll loop. It's owned by the caller that
// started it and is never persisted.
//
// At most one lookup is in flight and at most one re-check is pending at any
// time. Once a session ends it never resumes.
type Session struct {
	log       *logrus.Entry
	poller    *Poller
	paymentId string
	parentCtx context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	listeners []Listener
	done      chan struct{}
	startedAt time.Time

	mu       sync.Mutex
	active   bool
	inFlight bool
	pending  CancelFunc
	lookups  int
	latest   *sablepay.PaymentStatus
	outcome  Outcome
	err      error
	endedAt  time.Time
}

var errNoSnapshot = errors.New("status lookup returned no snapshot")

func newSession(ctx context.Context, p *Poller, paymentId string) *Session {
	sessionCtx, cancel := context.WithCancel(ctx)
	return &Session{
		log:       p.log.WithField("payment_id", paymentId),
		poller:    p,
		paymentId: paymentId,
		parentCtx: ctx,
		ctx:       sessionCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
		startedAt: time.Now(),
		active:    true,
	}
}

// check performs one lookup and decides whether to schedule the next one.
func (s *Session) check() {
	s.mu.Lock()
	if !s.active || s.inFlight {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.inFlight = true
	s.lookups++
	s.mu.Unlock()

	ctx, endTxn := metrics.StartBackgroundTransaction(s.ctx, "poller__check_payment_status")

	lookupCtx := ctx
	if timeout := s.poller.lookupTimeout(ctx); timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	status, err := s.poller.lookup.GetPaymentStatus(lookupCtx, s.paymentId)
	if err == nil && status == nil {
		err = errNoSnapshot
	}
	s.poller.collectors.observeLookup(ctx, time.Since(start), err)
	endTxn(err)

	s.mu.Lock()
	s.inFlight = false

	if !s.active {
		// Stopped while the lookup was in flight. The response is stale.
		s.mu.Unlock()
		s.log.Debug("discarding lookup result for inactive session")
		return
	}

	var ended bool
	if err != nil {
		s.endLocked(OutcomeErrored, err)
		ended = true
	} else {
		s.latest = status

		switch status.Outcome() {
		case sablepay.OutcomeSucceeded:
			s.endLocked(OutcomeSucceeded, nil)
			ended = true
		case sablepay.OutcomeFailed:
			s.endLocked(OutcomeFailed, nil)
			ended = true
		default:
			s.pending = s.poller.scheduler.Schedule(s.poller.interval(s.ctx), s.check)
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).Info("payment status lookup failed, polling stopped")
	} else {
		s.log.WithField("status", status.Status).Debug("payment status observed")
		for _, l := range s.listeners {
			l.OnSnapshot(s, status)
		}
	}

	if ended {
		s.notifyEnd()
	}
}

// Stop cancels the pending re-check, if any, and ends the session. A lookup
// that is in flight is cancelled and its result discarded.
//
// Stop is idempotent, and has no effect on a session that already ended.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.endLocked(OutcomeStopped, nil)
	s.mu.Unlock()

	s.log.Debug("poll session stopped")
	s.notifyEnd()
}

func (s *Session) endLocked(outcome Outcome, err error) {
	s.active = false
	s.outcome = outcome
	s.err = err
	s.endedAt = time.Now()

	if s.pending != nil {
		s.pending()
		s.pending = nil
	}

	s.cancel()
}

func (s *Session) notifyEnd() {
	s.poller.collectors.observeEnd(s.parentCtx, s)

	for _, l := range s.listeners {
		l.OnEnd(s)
	}

	close(s.done)
}

// PaymentId returns the trimmed payment id being polled.
func (s *Session) PaymentId() string {
	return s.paymentId
}

// Done returns a channel that's closed when the session ends for any reason,
// after every listener has seen the final snapshot and OnEnd.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Active returns whether the session is still polling.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

// Outcome returns how the session ended, or OutcomePending while active.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.outcome
}

// Latest returns the most recent snapshot, if any.
func (s *Session) Latest() *sablepay.PaymentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.latest
}

// Lookups returns how many lookups the session issued.
func (s *Session) Lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lookups
}

// StartedAt returns when the session started.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// EndedAt returns when the session ended, or the zero time while active.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.endedAt
}

// Result returns the final snapshot of a session that observed a terminal
// status, or the lookup error of one that errored.
//
// Returns ErrSessionActive while the session is active and ErrSessionStopped
// once it was stopped.
func (s *Session) Result() (*sablepay.PaymentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.outcome {
	case OutcomePending:
		return nil, ErrSessionActive
	case OutcomeStopped:
		return nil, ErrSessionStopped
	case OutcomeErrored:
		return nil, s.err
	}
	return s.latest, nil
}

// Wait blocks until the session ends or ctx is done, and returns its Result.
func (s *Session) Wait(ctx context.Context) (*sablepay.PaymentStatus, error) {
	select {
	case <-s.done:
		return s.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
