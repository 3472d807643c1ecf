package poller

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sablepay/coffee-pos/pkg/metrics"
)

const (
	sessionEndedEventName = "PaymentPollSessionEnded"
	lookupDurationName    = "PaymentPollLookupDuration"
)

type collectors struct {
	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	activeSessions prometheus.Gauge
	endedSessions  *prometheus.CounterVec
}

func newCollectors(registerer prometheus.Registerer) *collectors {
	c := &collectors{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace(),
			Subsystem: "poller",
			Name:      "lookups_total",
			Help:      "Payment status lookups, by result.",
		}, []string{"result"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metrics.Namespace(),
			Subsystem: "poller",
			Name:      "lookup_duration_seconds",
			Help:      "Latency of payment status lookups.",
			Buckets:   prometheus.DefBuckets,
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace(),
			Subsystem: "poller",
			Name:      "active_sessions",
			Help:      "Poll sessions that haven't ended.",
		}),
		endedSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace(),
			Subsystem: "poller",
			Name:      "sessions_ended_total",
			Help:      "Ended poll sessions, by outcome.",
		}, []string{"outcome"}),
	}

	if registerer != nil {
		registerer.MustRegister(c.lookups, c.lookupDuration, c.activeSessions, c.endedSessions)
	}

	return c
}

func (c *collectors) observeLookup(ctx context.Context, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	c.lookups.WithLabelValues(result).Inc()
	c.lookupDuration.Observe(duration.Seconds())
	metrics.RecordDuration(ctx, lookupDurationName, duration)
}

func (c *collectors) observeStart() {
	c.activeSessions.Inc()
}

func (c *collectors) observeEnd(ctx context.Context, s *Session) {
	outcome := s.Outcome()

	c.activeSessions.Dec()
	c.endedSessions.WithLabelValues(outcome.String()).Inc()

	metrics.RecordEvent(ctx, sessionEndedEventName, map[string]interface{}{
		"payment_id": s.PaymentId(),
		"outcome":    outcome.String(),
		"lookups":    s.Lookups(),
	})
}
