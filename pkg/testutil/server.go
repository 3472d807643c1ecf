package testutil

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/netutil"
	"github.com/sablepay/coffee-pos/pkg/retry"
	"github.com/sablepay/coffee-pos/pkg/retry/backoff"
)

const (
	readyPath    = "/__testutil/ready"
	readyTimeout = 3 * time.Second
)

// Server is a real HTTP server on a local port, for tests that need to go
// through an HTTP client, like the SablePay client and webhook tests.
type Server struct {
	log *logrus.Entry

	mu       sync.Mutex
	started  bool
	stopped  bool
	listener net.Listener
	server   *http.Server
	baseUrl  string
}

// NewServer binds a local port for handler. Nothing is served until Serve.
func NewServer(handler http.Handler) (*Server, error) {
	port, err := netutil.GetAvailablePortForAddress("127.0.0.1")
	if err != nil {
		return nil, err
	}

	address := net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port)))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "error listening on %s", address)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(readyPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("/", handler)

	return &Server{
		log:      logrus.StandardLogger().WithField("type", "testutil/server"),
		listener: listener,
		server:   &http.Server{Handler: mux},
		baseUrl:  "http://" + address,
	}, nil
}

// BaseUrl returns the URL the server is reachable at.
func (s *Server) BaseUrl() string {
	return s.baseUrl
}

// Serve starts serving in the background and waits until requests go through.
// A server can be served once. stopFunc is idempotent.
func (s *Server) Serve() (stopFunc func(), err error) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return nil, errors.New("test server already started")
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		err := s.server.Serve(s.listener)
		s.log.WithError(err).Debug("stopped serving")
	}()

	if err := s.waitUntilReady(); err != nil {
		s.stop()
		return nil, err
	}
	return s.stop, nil
}

func (s *Server) waitUntilReady() error {
	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()

	_, err := retry.Do(
		ctx,
		func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseUrl+readyPath, nil)
			if err != nil {
				return err
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				return errors.Errorf("unexpected status code %d", resp.StatusCode)
			}
			return nil
		},
		retry.Backoff(backoff.Constant(25*time.Millisecond), 25*time.Millisecond),
	)
	return errors.Wrap(err, "test server never became ready")
}

func (s *Server) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true

	s.server.Close()
	s.listener.Close()
}
