package sablepay_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablepay/coffee-pos/pkg/sablepay"
	"github.com/sablepay/coffee-pos/pkg/sablepay/memory"
	"github.com/sablepay/coffee-pos/pkg/testutil"
)

const (
	testApiKey     = "sk_test_key"
	testMerchantId = "merchant_123"
)

type testEnv struct {
	client   sablepay.Client
	backend  *memory.Client
	requests *atomic.Int64
}

func setup(t *testing.T, handler func(backend http.Handler) http.Handler, mutate func(c *sablepay.Config)) testEnv {
	backend := memory.NewClient()

	var requests atomic.Int64
	var h http.Handler = memory.NewHandler(backend, testApiKey, testMerchantId)
	if handler != nil {
		h = handler(h)
	}
	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		h.ServeHTTP(w, r)
	})

	server, err := testutil.NewServer(counted)
	require.NoError(t, err)
	stopFunc, err := server.Serve()
	require.NoError(t, err)
	t.Cleanup(stopFunc)

	conf := sablepay.LoadConfig(context.Background(), sablepay.WithStaticConfigs(testApiKey, testMerchantId, server.BaseUrl()+"///"))
	if mutate != nil {
		mutate(conf)
	}

	client, err := sablepay.NewClient(conf)
	require.NoError(t, err)

	return testEnv{
		client:   client,
		backend:  backend,
		requests: &requests,
	}
}

func TestNewClient_MissingConfiguration(t *testing.T) {
	_, err := sablepay.NewClient(&sablepay.Config{BaseUrl: "https://api.sablepay.io"})
	assert.Equal(t, sablepay.ErrMissingConfiguration, err)
}

func TestClient_CreateAndLookup(t *testing.T) {
	env := setup(t, nil, nil)
	ctx := context.Background()

	created, err := env.client.CreatePayment(ctx, &sablepay.CreatePaymentRequest{
		Amount: decimal.NewFromInt(2),
		Items: []sablepay.PaymentItem{
			{Name: "Espresso", Quantity: 1, Amount: decimal.NewFromInt(1)},
			{Name: "Muffin", Quantity: 1, Amount: decimal.NewFromInt(1)},
		},
		Metadata: map[string]string{"source": "example-app-coffee-shop"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.PaymentId)
	assert.True(t, decimal.NewFromInt(2).Equal(created.Amount))
	assert.Equal(t, sablepay.StatusPending, created.Status)
	assert.NotEmpty(t, created.QrPayload())

	requests := env.backend.Requests()
	require.Len(t, requests, 1)
	assert.Len(t, requests[0].Items, 2)
	assert.Equal(t, "example-app-coffee-shop", requests[0].Metadata["source"])

	env.backend.SetStatuses(created.PaymentId, "processing", "Completed")

	status, err := env.client.GetPaymentStatus(ctx, "  "+created.PaymentId+"  ")
	require.NoError(t, err)
	assert.Equal(t, created.PaymentId, status.PaymentId)
	assert.Equal(t, "processing", status.Status)
	assert.Equal(t, sablepay.OutcomePending, status.Outcome())

	status, err = env.client.GetPaymentStatus(ctx, created.PaymentId)
	require.NoError(t, err)
	assert.Equal(t, "Completed", status.Status)
	assert.Equal(t, sablepay.OutcomeSucceeded, status.Outcome())
	assert.True(t, status.PaidAmount.Valid)
	assert.NotEmpty(t, status.TxHash)
}

func TestClient_LookupErrors(t *testing.T) {
	env := setup(t, nil, nil)
	ctx := context.Background()

	_, err := env.client.GetPaymentStatus(ctx, "   ")
	assert.Equal(t, sablepay.ErrInvalidPaymentId, err)
	assert.EqualValues(t, 0, env.requests.Load())

	_, err = env.client.GetPaymentStatus(ctx, "pay_unknown")
	assert.Equal(t, sablepay.ErrPaymentNotFound, err)

	env.backend.AddPayment("pay_broken")
	env.backend.SetLookupError("pay_broken", &sablepay.APIError{StatusCode: http.StatusServiceUnavailable, Message: "maintenance"})

	before := env.requests.Load()
	_, err = env.client.GetPaymentStatus(ctx, "pay_broken")
	var apiErr *sablepay.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "maintenance", apiErr.Message)

	// A single attempt is made by default
	assert.EqualValues(t, before+1, env.requests.Load())
}

func TestClient_InvalidCredentials(t *testing.T) {
	env := setup(t, nil, func(c *sablepay.Config) {
		c.ApiKey = "wrong"
	})

	_, err := env.client.GetPaymentStatus(context.Background(), "pay_1")
	var apiErr *sablepay.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.False(t, sablepay.IsTransientError(err))
}

func TestClient_RetriesTransientErrors(t *testing.T) {
	var failures atomic.Int64
	failures.Store(2)

	flaky := func(backend http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if failures.Add(-1) >= 0 {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("upstream unavailable"))
				return
			}
			backend.ServeHTTP(w, r)
		})
	}

	env := setup(t, flaky, func(c *sablepay.Config) {
		c.MaxAttempts = 3
	})
	env.backend.AddPayment("pay_flaky", "pending")

	status, err := env.client.GetPaymentStatus(context.Background(), "pay_flaky")
	require.NoError(t, err)
	assert.Equal(t, "pending", status.Status)
	assert.EqualValues(t, 3, env.requests.Load())
}

func TestClient_CircuitBreaker(t *testing.T) {
	failing := func(backend http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"code":"internal","message":"boom"}`))
		})
	}

	env := setup(t, failing, func(c *sablepay.Config) {
		c.BreakerFailures = 2
		c.BreakerCooldown = time.Minute
	})

	for i := 0; i < 2; i++ {
		_, err := env.client.GetPaymentStatus(context.Background(), "pay_1")
		var apiErr *sablepay.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "internal", apiErr.Code)
	}

	_, err := env.client.GetPaymentStatus(context.Background(), "pay_1")
	assert.ErrorIs(t, err, sablepay.ErrServiceUnavailable)
	assert.EqualValues(t, 2, env.requests.Load())
}

func TestClient_CancelledContext(t *testing.T) {
	env := setup(t, nil, nil)
	env.backend.AddPayment("pay_1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.client.GetPaymentStatus(ctx, "pay_1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, sablepay.IsTransientError(err))
}
