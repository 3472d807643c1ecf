package metrics

import (
	"context"
)

// RecordEvent records a custom event. Attributes with nil values are dropped,
// since New Relic rejects them.
func RecordEvent(ctx context.Context, eventType string, attributes map[string]interface{}) {
	app, ok := FromContext(ctx)
	if !ok {
		return
	}

	params := make(map[string]interface{}, len(attributes))
	for key, value := range attributes {
		if value != nil {
			params[key] = value
		}
	}
	app.RecordCustomEvent(eventType, params)
}
