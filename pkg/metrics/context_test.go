package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFromContext_NoApplication(t *testing.T) {
	ctx := NewContext(context.Background(), nil)

	_, ok := FromContext(ctx)
	assert.False(t, ok)

	// None of these should panic without an application
	RecordEvent(ctx, "event", map[string]interface{}{"key": "value"})
	RecordCount(ctx, "count", 1)
	RecordDuration(ctx, "duration", time.Second)

	tracedCtx, end := StartBackgroundTransaction(ctx, "txn")
	assert.Equal(t, ctx, tracedCtx)
	end(errors.New("ignored"))

	tracer := TraceMethodCall(ctx, "pkg", "method")
	assert.Nil(t, tracer)
	tracer.AddAttribute("key", "value")
	tracer.AddAttributes(map[string]interface{}{"payment_id": "pay_1"})
	tracer.OnError(errors.New("ignored"))
	tracer.End()
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	families, err := registry.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
