package sablepay

import (
	"strings"
)

// Known payment status labels. The API may add labels over time, and any
// label not listed as terminal is treated as still in progress.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusConfirmed  = "confirmed"
	StatusFailed     = "failed"
	StatusExpired    = "expired"
	StatusCancelled  = "cancelled"
	StatusCanceled   = "canceled"
)

// Outcome is the classification of a payment status label.
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// IsTerminal returns whether no further status changes are expected.
func (o Outcome) IsTerminal() bool {
	return o == OutcomeSucceeded || o == OutcomeFailed
}

func normalize(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// ClassifyStatus classifies a status label, ignoring case.
func ClassifyStatus(status string) Outcome {
	switch {
	case IsCompleted(status):
		return OutcomeSucceeded
	case IsFailed(status), IsExpired(status):
		return OutcomeFailed
	}
	return OutcomePending
}

// IsCompleted returns whether the status is a terminal success.
func IsCompleted(status string) bool {
	switch normalize(status) {
	case StatusCompleted, StatusConfirmed:
		return true
	}
	return false
}

// IsFailed returns whether the status is a terminal failure other than expiry.
func IsFailed(status string) bool {
	switch normalize(status) {
	case StatusFailed, StatusCancelled, StatusCanceled:
		return true
	}
	return false
}

// IsExpired returns whether the payment expired before being paid.
func IsExpired(status string) bool {
	return normalize(status) == StatusExpired
}

// IsPending returns whether the payment is still in progress.
func IsPending(status string) bool {
	return ClassifyStatus(status) == OutcomePending
}

// IsTerminal returns whether the status is terminal, either way.
func IsTerminal(status string) bool {
	return ClassifyStatus(status).IsTerminal()
}

// StatusClass returns the display class for a status label: "success" for
// completed payments, "error" for failed ones and "warning" for anything
// still in progress. An empty label has no class.
func StatusClass(status string) string {
	if len(normalize(status)) == 0 {
		return ""
	}

	switch ClassifyStatus(status) {
	case OutcomeSucceeded:
		return "success"
	case OutcomeFailed:
		return "error"
	}
	return "warning"
}
