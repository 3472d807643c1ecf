package metrics

import (
	"context"
	"time"
)

// Custom metric names are reported under this prefix, so New Relic groups them
// together.
const customMetricPrefix = "Custom/CoffeePos/"

// RecordCount adds count to the custom metric name. It's a no-op unless ctx
// carries a New Relic application.
func RecordCount(ctx context.Context, name string, count uint64) {
	record(ctx, name, float64(count))
}

// RecordDuration records duration, in fractional milliseconds, against the
// custom metric name.
func RecordDuration(ctx context.Context, name string, duration time.Duration) {
	record(ctx, name, float64(duration)/float64(time.Millisecond))
}

func record(ctx context.Context, name string, value float64) {
	app, ok := FromContext(ctx)
	if !ok {
		return
	}
	app.RecordCustomMetric(customMetricPrefix+name, value)
}
