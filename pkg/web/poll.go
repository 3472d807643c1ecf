package web

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/lock"
	"github.com/sablepay/coffee-pos/pkg/poller"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
	sync_util "github.com/sablepay/coffee-pos/pkg/sync"
)

const (
	pollLockPrefix = "poll/"

	pollLockStripes = 64

	// Ended sessions are kept around so their final state can be read back,
	// but only up to this many.
	maxEndedPollSessions = 1000
)

// ErrPollConflict is returned when a payment is already being polled by
// another replica.
var ErrPollConflict = errors.New("payment is already being polled")

// pollSessions runs at most one poll session per payment id. Exclusivity
// within the process comes from a striped lock over payment ids, and across
// replicas from a distributed lock held for the lifetime of the session.
type pollSessions struct {
	log     *logrus.Entry
	conf    *conf
	poller  *poller.Poller
	locks   lock.Manager
	stripes *sync_util.StripedLock

	// Sessions outlive the request that started them.
	ctx context.Context

	mu       sync.Mutex
	sessions map[string]*poller.Session
	ended    []string
}

func newPollSessions(ctx context.Context, conf *conf, p *poller.Poller, locks lock.Manager) *pollSessions {
	return &pollSessions{
		log:      logrus.StandardLogger().WithField("type", "web/pollSessions"),
		conf:     conf,
		poller:   p,
		locks:    locks,
		stripes:  sync_util.NewStripedLock(pollLockStripes),
		ctx:      ctx,
		sessions: make(map[string]*poller.Session),
	}
}

// start returns the active session for paymentId, or starts a new one. The
// returned bool is true when a new session was started.
func (p *pollSessions) start(ctx context.Context, paymentId string) (*poller.Session, bool, error) {
	paymentId = strings.TrimSpace(paymentId)
	if len(paymentId) == 0 {
		return nil, false, poller.ErrInvalidPaymentId
	}

	var session *poller.Session
	var started bool
	var err error
	p.stripes.Do(paymentId, func() {
		if existing := p.get(paymentId); existing != nil && existing.Active() {
			session = existing
			return
		}

		session, err = p.startLocked(ctx, paymentId)
		started = err == nil
	})
	return session, started, err
}

func (p *pollSessions) startLocked(ctx context.Context, paymentId string) (*poller.Session, error) {
	log := p.log.WithField("payment_id", paymentId)

	distributedLock, err := p.locks.Create(ctx, pollLockPrefix+paymentId)
	if err != nil {
		return nil, errors.Wrap(err, "error creating poll lock")
	}

	acquireCtx, cancel := context.WithTimeout(ctx, p.conf.pollLockTimeout.Get(ctx))
	defer cancel()

	lostCh, err := distributedLock.Acquire(acquireCtx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, ErrPollConflict
	} else if err != nil {
		return nil, errors.Wrap(err, "error acquiring poll lock")
	}

	release := func() {
		if err := distributedLock.Unlock(context.Background()); err != nil {
			log.WithError(err).Warn("failure releasing poll lock")
		}
	}

	// The session is stored before its first lookup can end it, so markEnded
	// always finds it.
	p.mu.Lock()
	session, err := p.poller.Start(p.ctx, paymentId, poller.WithSessionListener(poller.ListenerFuncs{
		End: func(s *poller.Session) {
			release()
			p.markEnded(s)
		},
	}))
	if err == nil {
		p.sessions[paymentId] = session
	}
	p.mu.Unlock()

	if err != nil {
		release()
		return nil, err
	}

	go func() {
		select {
		case <-session.Done():
		case <-lostCh:
			log.Warn("poll lock lost, stopping session")
			session.Stop()
		}
	}()

	log.Debug("poll session started")
	return session, nil
}

// stop stops the session for paymentId. Stopping a session that already ended
// is a no-op.
func (p *pollSessions) stop(paymentId string) (*poller.Session, error) {
	paymentId = strings.TrimSpace(paymentId)
	if len(paymentId) == 0 {
		return nil, poller.ErrInvalidPaymentId
	}

	session := p.get(paymentId)
	if session == nil {
		return nil, errPollSessionNotFound
	}

	session.Stop()
	return session, nil
}

func (p *pollSessions) get(paymentId string) *poller.Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.sessions[paymentId]
}

func (p *pollSessions) markEnded(s *poller.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sessions[s.PaymentId()] != s {
		return
	}

	p.ended = append(p.ended, s.PaymentId())
	for len(p.ended) > maxEndedPollSessions {
		oldest := p.ended[0]
		p.ended = p.ended[1:]

		if existing, ok := p.sessions[oldest]; ok && !existing.Active() {
			delete(p.sessions, oldest)
		}
	}
}

// stopAll stops every active session.
func (p *pollSessions) stopAll() {
	p.mu.Lock()
	sessions := make([]*poller.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}

var errPollSessionNotFound = errors.New("no poll session for payment")

type pollSessionView struct {
	PaymentId   string                  `json:"paymentId"`
	Active      bool                    `json:"active"`
	Outcome     string                  `json:"outcome"`
	Lookups     int                     `json:"lookups"`
	Status      *sablepay.PaymentStatus `json:"status,omitempty"`
	StatusClass string                  `json:"statusClass,omitempty"`
	Error       string                  `json:"error,omitempty"`
	StartedAt   time.Time               `json:"startedAt"`
	EndedAt     *time.Time              `json:"endedAt,omitempty"`
}

func newPollSessionView(s *poller.Session) *pollSessionView {
	view := &pollSessionView{
		PaymentId: s.PaymentId(),
		Active:    s.Active(),
		Outcome:   s.Outcome().String(),
		Lookups:   s.Lookups(),
		Status:    s.Latest(),
		StartedAt: s.StartedAt(),
	}

	if view.Status != nil {
		view.StatusClass = sablepay.StatusClass(view.Status.Status)
	}

	if s.Outcome() == poller.OutcomeErrored {
		if _, err := s.Result(); err != nil {
			view.Error = err.Error()
		}
	}

	if endedAt := s.EndedAt(); !endedAt.IsZero() {
		view.EndedAt = &endedAt
	}

	return view
}
