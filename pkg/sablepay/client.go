package sablepay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/sablepay/coffee-pos/pkg/metrics"
	"github.com/sablepay/coffee-pos/pkg/netutil"
	"github.com/sablepay/coffee-pos/pkg/retry"
	"github.com/sablepay/coffee-pos/pkg/retry/backoff"
)

const (
	metricsStructName = "sablepay.client"
)

const (
	createPaymentPath       = "v1/payments"
	paymentStatusPathFormat = "v1/payments/%s/status"

	merchantIdHeader = "X-Merchant-Id"
	userAgent        = "coffee-pos"

	maxErrorBodySize = 4096
)

// Client is the subset of the SablePay API used by the point of sale.
type Client interface {
	// CreatePayment creates a payment for the request.
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error)

	// GetPaymentStatus returns the latest status snapshot for a payment.
	//
	// Returns ErrPaymentNotFound if SablePay doesn't know the payment.
	GetPaymentStatus(ctx context.Context, paymentId string) (*PaymentStatus, error)
}

type client struct {
	log        *logrus.Entry
	conf       *Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// Option configures a client.
type Option func(c *client)

// WithHttpClient overrides the HTTP client used for requests.
func WithHttpClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// NewClient returns a Client talking to the configured SablePay API.
//
// Returns ErrMissingConfiguration if the credentials or base URL are missing.
func NewClient(conf *Config, opts ...Option) (Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":        "sablepay/client",
		"environment": conf.Environment().String(),
	})

	breakerFailures := conf.BreakerFailures
	if breakerFailures == 0 {
		breakerFailures = defaultBreakerFailures
	}

	c := &client{
		log:  log,
		conf: conf,
		httpClient: &http.Client{
			Timeout: conf.HttpTimeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "sablepay",
			MaxRequests: 1,
			Timeout:     conf.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return uint64(counts.ConsecutiveFailures) >= breakerFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !IsTransientError(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(logrus.Fields{
					"from": from.String(),
					"to":   to.String(),
				}).Warn("circuit breaker state changed")
			},
		}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// CreatePayment implements Client.CreatePayment
func (c *client) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreatePayment")
	defer tracer.End()

	if err := req.Validate(); err != nil {
		tracer.OnError(err)
		return nil, err
	}

	var resp CreatePaymentResponse
	err := c.submitRequest(ctx, http.MethodPost, createPaymentPath, req, &resp)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	if len(resp.PaymentId) == 0 {
		err = errors.New("create payment response is missing a payment id")
		tracer.OnError(err)
		return nil, err
	}

	tracer.AddAttribute("payment_id", resp.PaymentId)

	c.log.WithFields(logrus.Fields{
		"method":     "CreatePayment",
		"payment_id": resp.PaymentId,
		"amount":     resp.Amount.String(),
	}).Debug("payment created")

	return &resp, nil
}

// GetPaymentStatus implements Client.GetPaymentStatus
func (c *client) GetPaymentStatus(ctx context.Context, paymentId string) (*PaymentStatus, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetPaymentStatus")
	defer tracer.End()

	paymentId = strings.TrimSpace(paymentId)
	if len(paymentId) == 0 {
		tracer.OnError(ErrInvalidPaymentId)
		return nil, ErrInvalidPaymentId
	}
	tracer.AddAttribute("payment_id", paymentId)

	var resp PaymentStatus
	path := fmt.Sprintf(paymentStatusPathFormat, url.PathEscape(paymentId))
	err := c.submitRequest(ctx, http.MethodGet, path, nil, &resp)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, ErrPaymentNotFound
	} else if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	if len(resp.PaymentId) == 0 {
		resp.PaymentId = paymentId
	}

	tracer.AddAttribute("status", resp.Status)

	return &resp, nil
}

func (c *client) submitRequest(ctx context.Context, method, path string, body, resp interface{}) error {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
	}

	maxAttempts := c.conf.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	_, err := retry.Do(
		ctx,
		func(ctx context.Context) error {
			_, err := c.breaker.Execute(func() (interface{}, error) {
				return nil, c.doRequest(ctx, method, path, encoded, resp)
			})
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return errors.Wrap(ErrServiceUnavailable, err.Error())
			}
			return err
		},
		retry.Limit(uint(maxAttempts)),
		retry.RetriableIf(IsTransientError),
		retry.BackoffWithJitter(backoff.BinaryExponential(250*time.Millisecond), 2*time.Second, 0.1),
	)
	return err
}

func (c *client) doRequest(ctx context.Context, method, path string, body []byte, resp interface{}) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, netutil.JoinBaseUrl(c.conf.BaseUrl, path), reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Authorization", "Bearer "+c.conf.ApiKey)
	req.Header.Set(merchantIdHeader, c.conf.MerchantId)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to make request")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return newAPIError(httpResp)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return &decodeError{cause: err}
	}

	return nil
}

func newAPIError(httpResp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: httpResp.StatusCode,
	}

	raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBodySize))

	var body struct {
		Code    string `json:"code"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		if len(apiErr.Message) == 0 {
			apiErr.Message = body.Error
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	if len(apiErr.Message) == 0 {
		apiErr.Message = http.StatusText(httpResp.StatusCode)
	}

	return apiErr
}
