package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/sablepay/coffee-pos/pkg/data/payment"
	"github.com/sablepay/coffee-pos/pkg/poller"
	"github.com/sablepay/coffee-pos/pkg/pos"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

const (
	successJsonKey = "success"
	errorJsonKey   = "error"

	contentTypeHeaderName      = "content-type"
	jsonContentTypeHeaderValue = "application/json"
	pngContentTypeHeaderValue  = "image/png"
	svgContentTypeHeaderValue  = "image/svg+xml"

	maxRequestBodySize = 64 << 10
)

var (
	errInternal = errors.New("internal server error")
	errTimeout  = errors.New("request timed out")
)

type GenericApiResponseBody map[string]any

func NewGenericApiSuccessResponseBody() GenericApiResponseBody {
	return map[string]any{
		successJsonKey: true,
	}
}

func NewGenericApiFailureResponseBody(err error) GenericApiResponseBody {
	return map[string]any{
		successJsonKey: false,
		errorJsonKey:   err.Error(),
	}
}

func (b *GenericApiResponseBody) ToString() string {
	marshalled, _ := json.Marshal(b)
	return string(marshalled)
}

// HandleErrorInWebContext maps a domain error onto an HTTP status code and the
// error that's safe to return to the caller.
func HandleErrorInWebContext(err error) (int, error) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch {
	case errors.Is(err, sablepay.ErrMissingConfiguration),
		errors.Is(err, pos.ErrClientNotInitialized):
		return http.StatusServiceUnavailable, err
	case errors.Is(err, sablepay.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, err
	case errors.Is(err, poller.ErrInvalidPaymentId),
		errors.Is(err, sablepay.ErrInvalidPaymentId),
		errors.Is(err, sablepay.ErrInvalidAmount),
		errors.Is(err, sablepay.ErrInvalidItem),
		errors.Is(err, pos.ErrEmptyCart),
		errors.Is(err, pos.ErrUnknownItem):
		return http.StatusBadRequest, err
	case errors.Is(err, pos.ErrCheckoutNotFound),
		errors.Is(err, sablepay.ErrPaymentNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, errPollSessionNotFound):
		return http.StatusNotFound, err
	case errors.Is(err, pos.ErrCheckoutInProgress),
		errors.Is(err, ErrPollConflict):
		return http.StatusConflict, err
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, errTimeout
	}

	var apiErr *sablepay.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway, err
	}

	return http.StatusInternalServerError, errInternal
}

func writeJsonResponse(w http.ResponseWriter, statusCode int, body GenericApiResponseBody) {
	w.Header().Set(contentTypeHeaderName, jsonContentTypeHeaderValue)
	w.WriteHeader(statusCode)
	w.Write([]byte(body.ToString()))
}

func decodeJsonBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body missing")
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	if err := decoder.Decode(dst); err != nil {
		return errors.Wrap(err, "invalid json body")
	}
	return nil
}

// clientIp returns the address rate limits are keyed on. The first entry of
// X-Forwarded-For wins over the connection's remote address.
func clientIp(r *http.Request) string {
	if forwarded := r.Header.Get("x-forwarded-for"); len(forwarded) > 0 {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); len(ip) > 0 {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
