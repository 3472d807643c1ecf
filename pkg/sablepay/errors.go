package sablepay

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrMissingConfiguration is returned when the API key, merchant id or
	// base URL aren't configured.
	ErrMissingConfiguration = errors.New("Missing configuration. Please set PUBLIC_SABLEPAY_API_KEY, PUBLIC_SABLEPAY_MERCHANT_ID, and PUBLIC_SABLEPAY_BASE_URL.")

	ErrInvalidPaymentId   = errors.New("payment id is required")
	ErrInvalidAmount      = errors.New("payment amount must be positive")
	ErrInvalidItem        = errors.New("payment item is invalid")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrServiceUnavailable = errors.New("sablepay is temporarily unavailable")
)

// APIError is a non-2xx response from the SablePay API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if len(e.Code) > 0 {
		return fmt.Sprintf("sablepay api error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("sablepay api error (%d): %s", e.StatusCode, e.Message)
}

// IsTransient returns whether the request might succeed if it were sent again.
func (e *APIError) IsTransient() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// IsTransientError returns whether err is worth retrying. Transport errors and
// transient API errors are. Client errors, validation failures, cancellation
// and an open circuit breaker aren't.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ErrPaymentNotFound),
		errors.Is(err, ErrInvalidPaymentId),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidItem):
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsTransient()
	}

	var decodeErr *decodeError
	return !errors.As(err, &decodeErr)
}

type decodeError struct {
	cause error
}

func (e *decodeError) Error() string {
	return "failed to decode response: " + e.cause.Error()
}

func (e *decodeError) Unwrap() error {
	return e.cause
}
