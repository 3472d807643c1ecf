package sablepay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	for _, tc := range []struct {
		status   string
		expected Outcome
	}{
		{"completed", OutcomeSucceeded},
		{"COMPLETED", OutcomeSucceeded},
		{"Confirmed", OutcomeSucceeded},
		{" confirmed ", OutcomeSucceeded},
		{"failed", OutcomeFailed},
		{"FAILED", OutcomeFailed},
		{"Expired", OutcomeFailed},
		{"cancelled", OutcomeFailed},
		{"canceled", OutcomeFailed},
		{"pending", OutcomePending},
		{"processing", OutcomePending},
		{"PROCESSING", OutcomePending},
		{"refund_requested", OutcomePending},
		{"", OutcomePending},
	} {
		assert.Equal(t, tc.expected, ClassifyStatus(tc.status), tc.status)
		assert.Equal(t, tc.expected.IsTerminal(), IsTerminal(tc.status), tc.status)
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, IsCompleted("Completed"))
	assert.False(t, IsCompleted("expired"))

	assert.True(t, IsFailed("Cancelled"))
	assert.False(t, IsFailed("expired"))

	assert.True(t, IsExpired("EXPIRED"))
	assert.False(t, IsExpired("failed"))

	assert.True(t, IsPending("pending"))
	assert.True(t, IsPending("processing"))
	assert.False(t, IsPending("confirmed"))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "success", StatusClass("completed"))
	assert.Equal(t, "success", StatusClass("CONFIRMED"))
	assert.Equal(t, "error", StatusClass("failed"))
	assert.Equal(t, "error", StatusClass("Expired"))
	assert.Equal(t, "error", StatusClass("cancelled"))
	assert.Equal(t, "warning", StatusClass("pending"))
	assert.Equal(t, "warning", StatusClass("processing"))
	assert.Equal(t, "", StatusClass(""))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "pending", OutcomePending.String())
	assert.Equal(t, "succeeded", OutcomeSucceeded.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}

func TestEnvironmentForBaseUrl(t *testing.T) {
	assert.Equal(t, EnvironmentSandbox, EnvironmentForBaseUrl("https://sandbox-api.sablepay.io"))
	assert.Equal(t, EnvironmentSandbox, EnvironmentForBaseUrl("https://api.sablepay.io/sandbox"))
	assert.Equal(t, EnvironmentLive, EnvironmentForBaseUrl("https://api.sablepay.io"))
	assert.Equal(t, EnvironmentCustom, EnvironmentForBaseUrl("http://localhost:8080"))
	assert.Equal(t, EnvironmentCustom, EnvironmentForBaseUrl(""))
}
