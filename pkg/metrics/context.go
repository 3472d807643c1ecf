package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type newRelicContextKey struct{}

// NewRelicContextKey is the context key under which the process-wide New Relic
// application is stored.
var NewRelicContextKey = newRelicContextKey{}

// NewContext returns a copy of ctx carrying the New Relic application. A nil
// app leaves the context untouched.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey, app)
}

// FromContext returns the New Relic application stored in ctx, if any.
func FromContext(ctx context.Context) (*newrelic.Application, bool) {
	app, ok := ctx.Value(NewRelicContextKey).(*newrelic.Application)
	return app, ok && app != nil
}

// StartBackgroundTransaction starts a New Relic transaction for work that
// doesn't originate from a request, such as a scheduled status lookup. The
// returned context carries the transaction so TraceMethodCall segments nest
// under it. The end func is always safe to call.
func StartBackgroundTransaction(ctx context.Context, name string) (context.Context, func(err error)) {
	app, ok := FromContext(ctx)
	if !ok {
		return ctx, func(error) {}
	}

	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), func(err error) {
		if err != nil {
			txn.NoticeError(err)
		}
		txn.End()
	}
}
