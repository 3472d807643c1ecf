package poller

import (
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

// Listener observes poll sessions. Callbacks run on the goroutine that
// processed the lookup, outside of any session lock, so they may call Stop.
type Listener interface {
	// OnSnapshot is called after every accepted status snapshot.
	OnSnapshot(s *Session, status *sablepay.PaymentStatus)

	// OnEnd is called exactly once, after the session ends for any reason.
	// The session's Done channel closes once every OnEnd returns, so OnEnd
	// must not wait on it.
	OnEnd(s *Session)
}

// ListenerFuncs adapts plain functions to a Listener. Nil functions are
// skipped.
type ListenerFuncs struct {
	Snapshot func(s *Session, status *sablepay.PaymentStatus)
	End      func(s *Session)
}

// OnSnapshot implements Listener.OnSnapshot
func (l ListenerFuncs) OnSnapshot(s *Session, status *sablepay.PaymentStatus) {
	if l.Snapshot != nil {
		l.Snapshot(s, status)
	}
}

// OnEnd implements Listener.OnEnd
func (l ListenerFuncs) OnEnd(s *Session) {
	if l.End != nil {
		l.End(s)
	}
}
