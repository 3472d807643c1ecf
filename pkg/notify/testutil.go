package notify

import (
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sablepay/coffee-pos/pkg/testutil"
)

const testWebhookPath = "/hooks/payment-outcome"

// TestWebhookEndpoint is a webhook receiver for tests. It records the JWT of
// every well formed delivery, and can be made slow or failing.
type TestWebhookEndpoint struct {
	baseUrl string

	mu     sync.Mutex
	tokens []string
	status int
	delay  time.Duration
}

// NewTestWebhookEndpoint serves a receiver until the test ends.
func NewTestWebhookEndpoint(t *testing.T) *TestWebhookEndpoint {
	endpoint := &TestWebhookEndpoint{status: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc(testWebhookPath, endpoint.receive)

	server, err := testutil.NewServer(mux)
	require.NoError(t, err)

	stop, err := server.Serve()
	require.NoError(t, err)
	t.Cleanup(stop)

	endpoint.baseUrl = server.BaseUrl()
	return endpoint
}

// Url is the URL to configure the notifier with.
func (e *TestWebhookEndpoint) Url() string {
	return e.baseUrl + testWebhookPath
}

func (e *TestWebhookEndpoint) receive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.Header.Get(contentTypeHeaderName) != contentTypeHeaderValue {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	token, err := io.ReadAll(r.Body)
	if err != nil || len(token) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	e.tokens = append(e.tokens, string(token))
	status, delay := e.status, e.delay
	e.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	w.WriteHeader(status)
}

// GetReceivedRequests returns the JWTs received so far, oldest first.
func (e *TestWebhookEndpoint) GetReceivedRequests() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.tokens...)
}

// SimulateErrors makes every later delivery fail with a 500.
func (e *TestWebhookEndpoint) SimulateErrors() {
	e.mu.Lock()
	e.status = http.StatusInternalServerError
	e.mu.Unlock()
}

// SimulateDelay holds every later delivery for delay before responding.
func (e *TestWebhookEndpoint) SimulateDelay(delay time.Duration) {
	e.mu.Lock()
	e.delay = delay
	e.mu.Unlock()
}
