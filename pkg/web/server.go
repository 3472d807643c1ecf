package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/cache"
	"github.com/sablepay/coffee-pos/pkg/data/payment"
	"github.com/sablepay/coffee-pos/pkg/database/query"
	"github.com/sablepay/coffee-pos/pkg/lock"
	"github.com/sablepay/coffee-pos/pkg/metrics"
	"github.com/sablepay/coffee-pos/pkg/netutil"
	"github.com/sablepay/coffee-pos/pkg/poller"
	"github.com/sablepay/coffee-pos/pkg/pos"
	"github.com/sablepay/coffee-pos/pkg/qr"
	"github.com/sablepay/coffee-pos/pkg/rate"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

const (
	apiPathPrefix = "/api"

	healthPath          = "/healthz"
	metricsPath         = "/metrics"
	configPath          = apiPathPrefix + "/config"
	menuPath            = apiPathPrefix + "/menu"
	checkoutCreatePath  = apiPathPrefix + "/checkout/create"
	checkoutGetPath     = apiPathPrefix + "/checkout/get"
	checkoutTogglePath  = apiPathPrefix + "/checkout/toggle"
	checkoutPayPath     = apiPathPrefix + "/checkout/pay"
	checkoutResetPath   = apiPathPrefix + "/checkout/reset"
	checkoutRemovePath  = apiPathPrefix + "/checkout/remove"
	checkoutQrPath      = apiPathPrefix + "/checkout/qr"
	paymentStatusPath   = apiPathPrefix + "/payments/status"
	paymentHistoryPath  = apiPathPrefix + "/payments/history"
	pollStartPath       = apiPathPrefix + "/poll/start"
	pollStopPath        = apiPathPrefix + "/poll/stop"
	pollStatePath       = apiPathPrefix + "/poll/state"
	proxyPathPrefix     = apiPathPrefix + "/proxy/"
	defaultHistoryLimit = 25
	maxHistoryLimit     = 100

	qrCacheBudget = 4 << 20
)

var (
	errRateLimited      = errors.New("too many requests")
	errNoPaymentForCart = errors.New("checkout has no payment")
)

// Server is the storefront's JSON API. It serves the checkout flow, one-shot
// status lookups, poll session control and a same-origin proxy to SablePay.
type Server struct {
	log          *logrus.Entry
	conf         *conf
	sablepayConf *sablepay.Config
	client       sablepay.Client
	initErr      error
	checkouts    *pos.Registry
	store        payment.Store
	polls        *pollSessions
	limiter      rate.Limiter
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	proxy        http.Handler
	qrCache      *cache.Cache[[]byte]
}

// Option configures a Server.
type Option func(o *serverOpts)

type serverOpts struct {
	ctx         context.Context
	registry    *prometheus.Registry
	limiterCtor rate.LimiterCtor
}

// WithMetricsRegistry exposes registry on /metrics and records request counts
// in it.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(o *serverOpts) {
		o.registry = registry
	}
}

// WithRateLimiterCtor overrides the in memory rate limiter.
func WithRateLimiterCtor(ctor rate.LimiterCtor) Option {
	return func(o *serverOpts) {
		o.limiterCtor = ctor
	}
}

// WithSessionContext sets the context poll sessions run under.
func WithSessionContext(ctx context.Context) Option {
	return func(o *serverOpts) {
		o.ctx = ctx
	}
}

// NewServer returns a new Server. A nil client means SablePay isn't
// configured; every endpoint that needs it then fails with the configuration
// error.
func NewServer(
	configProvider ConfigProvider,
	sablepayConf *sablepay.Config,
	client sablepay.Client,
	p *poller.Poller,
	checkouts *pos.Registry,
	store payment.Store,
	locks lock.Manager,
	opts ...Option,
) *Server {
	o := serverOpts{
		ctx:         context.Background(),
		limiterCtor: rate.NewLocalRateLimiterCtor(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	conf := configProvider()

	s := &Server{
		log:          logrus.StandardLogger().WithField("type", "web/server"),
		conf:         conf,
		sablepayConf: sablepayConf,
		client:       client,
		checkouts:    checkouts,
		store:        store,
		polls:        newPollSessions(o.ctx, conf, p, locks),
		limiter:      o.limiterCtor(conf.checkoutRateLimit.Get(o.ctx)),
		registry:     o.registry,
		qrCache:      cache.New[[]byte]("web/qr", qrCacheBudget),
	}

	if client == nil {
		s.initErr = sablepay.ErrMissingConfiguration
		if sablepayConf != nil {
			if err := sablepayConf.Validate(); err != nil {
				s.initErr = err
			}
		}
	}

	if s.initErr == nil && sablepayConf != nil {
		proxy, err := newProxy(sablepayConf.BaseUrl)
		if err != nil {
			s.log.WithError(err).Warn("proxy disabled")
		}
		s.proxy = proxy
	}

	if s.registry != nil {
		s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace(),
			Subsystem: "web",
			Name:      "requests_total",
			Help:      "HTTP requests served, by path and status code.",
		}, []string{"path", "code"})
		s.registry.MustRegister(s.requests)
	}

	return s
}

func (s *Server) healthHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJsonResponse(w, http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected")))
			return
		}

		writeJsonResponse(w, http.StatusOK, NewGenericApiSuccessResponseBody())
	}
}

func (s *Server) configHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodGet {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected"))
			}

			body := NewGenericApiSuccessResponseBody()
			body["configured"] = s.initErr == nil
			if s.sablepayConf != nil {
				body["environment"] = s.sablepayConf.Environment().String()
				body["baseUrl"] = s.sablepayConf.BaseUrl
			}
			if s.initErr != nil {
				body["initError"] = s.initErr.Error()
			}
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func (s *Server) menuHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJsonResponse(w, http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected")))
			return
		}

		body := NewGenericApiSuccessResponseBody()
		body["items"] = pos.Menu()
		writeJsonResponse(w, http.StatusOK, body)
	}
}

type checkoutRequest struct {
	CheckoutId string `json:"checkoutId"`
	Item       string `json:"item"`
}

func (s *Server) checkoutCreateHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			if !s.allow(log, r) {
				return http.StatusTooManyRequests, NewGenericApiFailureResponseBody(errRateLimited)
			}

			checkout := s.checkouts.Create()

			body := NewGenericApiSuccessResponseBody()
			body["checkout"] = checkout.State()
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func (s *Server) checkoutGetHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodGet {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected"))
			}

			checkout, err := s.checkouts.Get(r.URL.Query().Get("id"))
			if err != nil {
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			body := NewGenericApiSuccessResponseBody()
			body["checkout"] = checkout.State()
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func (s *Server) checkoutToggleHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			var req checkoutRequest
			if err := decodeJsonBody(r, &req); err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}

			checkout, err := s.checkouts.Get(req.CheckoutId)
			if err != nil {
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			selected, err := checkout.ToggleItem(req.Item)
			if err != nil {
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			body := NewGenericApiSuccessResponseBody()
			body["selected"] = selected
			body["checkout"] = checkout.State()
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func (s *Server) checkoutPayHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			ctx := r.Context()

			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			if s.initErr != nil {
				statusCode, err := HandleErrorInWebContext(s.initErr)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			var req checkoutRequest
			if err := decodeJsonBody(r, &req); err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}
			log = log.WithField("checkout_id", req.CheckoutId)

			checkout, err := s.checkouts.Get(req.CheckoutId)
			if err != nil {
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			if !s.allow(log, r) {
				return http.StatusTooManyRequests, NewGenericApiFailureResponseBody(errRateLimited)
			}

			if err := checkout.Pay(ctx); err != nil {
				log.WithError(err).Info("checkout payment failed")
				statusCode, err := HandleErrorInWebContext(err)
				body := NewGenericApiFailureResponseBody(err)
				body["checkout"] = checkout.State()
				return statusCode, body
			}

			body := NewGenericApiSuccessResponseBody()
			body["checkout"] = checkout.State()
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func (s *Server) checkoutResetHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			var req checkoutRequest
			if err := decodeJsonBody(r, &req); err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}

			checkout, err := s.checkouts.Get(req.CheckoutId)
			if err != nil {
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			checkout.Reset()

			body := NewGenericApiSuccessResponseBody()
			body["checkout"] = checkout.State()
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func (s *Server) checkoutRemoveHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			var req checkoutRequest
			if err := decodeJsonBody(r, &req); err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}

			if err := s.checkouts.Remove(req.CheckoutId); err != nil {
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			return http.StatusOK, NewGenericApiSuccessResponseBody()
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func (s *Server) checkoutQrHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		if r.Method != http.MethodGet {
			writeJsonResponse(w, http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected")))
			return
		}

		checkout, err := s.checkouts.Get(r.URL.Query().Get("id"))
		if err != nil {
			statusCode, err := HandleErrorInWebContext(err)
			writeJsonResponse(w, statusCode, NewGenericApiFailureResponseBody(err))
			return
		}

		state := checkout.State()
		if state.Payment == nil {
			writeJsonResponse(w, http.StatusNotFound, NewGenericApiFailureResponseBody(errNoPaymentForCart))
			return
		}

		format := "png"
		contentType := pngContentTypeHeaderValue
		if r.URL.Query().Get("format") == "svg" {
			format = "svg"
			contentType = svgContentTypeHeaderValue
		}

		image, err := s.renderQr(r.Context(), state.Payment, format)
		if err != nil {
			log.WithError(err).Warn("failure rendering qr code")
			writeJsonResponse(w, http.StatusInternalServerError, NewGenericApiFailureResponseBody(errInternal))
			return
		}

		w.Header().Set(contentTypeHeaderName, contentType)
		w.WriteHeader(http.StatusOK)
		w.Write(image)
	}
}

// renderQr renders the payment's QR code, reusing earlier renderings of the
// same payment, format and size.
func (s *Server) renderQr(ctx context.Context, resp *sablepay.CreatePaymentResponse, format string) ([]byte, error) {
	size := int(s.conf.qrSize.Get(ctx))
	key := fmt.Sprintf("%s/%s/%d", resp.PaymentId, format, size)
	if cached, ok := s.qrCache.Retrieve(key); ok {
		return cached, nil
	}

	opts := qr.DefaultRenderOptions()
	opts.Size = size

	code, err := qr.GeneratePaymentQr(resp, opts)
	if err != nil {
		return nil, err
	}

	var image []byte
	if format == "svg" {
		image = []byte(code.ToSvg())
	} else {
		image, err = code.ToPng()
		if err != nil {
			return nil, err
		}
	}

	// Concurrent renders of the same code may race to insert.
	_ = s.qrCache.Insert(key, image, len(image))
	return image, nil
}

func (s *Server) paymentStatusHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			ctx := r.Context()

			if r.Method != http.MethodGet {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected"))
			}

			if s.initErr != nil {
				statusCode, err := HandleErrorInWebContext(s.initErr)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			paymentId := strings.TrimSpace(r.URL.Query().Get("paymentId"))
			if len(paymentId) == 0 {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(sablepay.ErrInvalidPaymentId)
			}
			log = log.WithField("payment_id", paymentId)

			status, err := s.client.GetPaymentStatus(ctx, paymentId)
			if err != nil {
				log.WithError(err).Info("failure getting payment status")
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			body := NewGenericApiSuccessResponseBody()
			body["status"] = status
			body["statusClass"] = sablepay.StatusClass(status.Status)
			body["outcome"] = status.Outcome().String()
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

type paymentRecordView struct {
	PaymentId  string          `json:"paymentId"`
	OrderId    string          `json:"orderId"`
	Amount     decimal.Decimal `json:"amount"`
	ItemCount  uint32          `json:"itemCount"`
	PaymentUrl string          `json:"paymentUrl,omitempty"`
	Status     string          `json:"status"`
	State      string          `json:"state"`
	TxHash     *string         `json:"txHash,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Cursor     string          `json:"cursor"`
}

func newPaymentRecordView(record *payment.Record) *paymentRecordView {
	return &paymentRecordView{
		PaymentId:  record.PaymentId,
		OrderId:    record.OrderId,
		Amount:     record.Amount,
		ItemCount:  record.ItemCount,
		PaymentUrl: record.PaymentUrl,
		Status:     record.Status,
		State:      record.State.String(),
		TxHash:     record.TxHash,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
		Cursor:     query.ToCursor(record.Id).ToBase58(),
	}
}

func (s *Server) paymentHistoryHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			ctx := r.Context()

			if r.Method != http.MethodGet {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected"))
			}

			opts, err := historyQueryOptions(r.URL.Query())
			if err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}

			records, err := s.store.GetAll(ctx, opts...)
			if err != nil && err != payment.ErrNotFound {
				log.WithError(err).Warn("failure getting payment records")
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			views := make([]*paymentRecordView, 0, len(records))
			for _, record := range records {
				views = append(views, newPaymentRecordView(record))
			}

			counts := make(map[string]uint64)
			for _, state := range []payment.State{payment.StatePending, payment.StateSucceeded, payment.StateFailed} {
				count, err := s.store.CountByState(ctx, state)
				if err != nil {
					log.WithError(err).Warn("failure counting payment records")
					statusCode, err := HandleErrorInWebContext(err)
					return statusCode, NewGenericApiFailureResponseBody(err)
				}
				counts[state.String()] = count
			}

			body := NewGenericApiSuccessResponseBody()
			body["payments"] = views
			body["counts"] = counts
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func historyQueryOptions(values url.Values) ([]query.Option, error) {
	limit := uint64(defaultHistoryLimit)
	if raw := values.Get("limit"); len(raw) > 0 {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			return nil, errors.New("limit must be a positive integer")
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	opts := []query.Option{
		query.WithLimit(limit),
		query.WithDirection(query.ToOrderingWithFallback(values.Get("order"), query.Descending)),
	}

	if raw := values.Get("cursor"); len(raw) > 0 {
		cursor, err := query.CursorFromBase58(raw)
		if err != nil {
			return nil, errors.New("invalid cursor")
		}
		opts = append(opts, query.WithCursor(cursor))
	}

	return opts, nil
}

type pollRequest struct {
	PaymentId string `json:"paymentId"`
}

func (s *Server) pollStartHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			ctx := r.Context()

			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			if s.initErr != nil {
				statusCode, err := HandleErrorInWebContext(s.initErr)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			var req pollRequest
			if err := decodeJsonBody(r, &req); err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}

			session, started, err := s.polls.start(ctx, req.PaymentId)
			if err != nil {
				log.WithError(err).WithField("payment_id", req.PaymentId).Info("failure starting poll session")
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			body := NewGenericApiSuccessResponseBody()
			body["started"] = started
			body["session"] = newPollSessionView(session)
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func (s *Server) pollStopHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			var req pollRequest
			if err := decodeJsonBody(r, &req); err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}

			session, err := s.polls.stop(req.PaymentId)
			if err != nil {
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			body := NewGenericApiSuccessResponseBody()
			body["session"] = newPollSessionView(session)
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func (s *Server) pollStateHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodGet {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected"))
			}

			paymentId := strings.TrimSpace(r.URL.Query().Get("paymentId"))
			if len(paymentId) == 0 {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(poller.ErrInvalidPaymentId)
			}

			session := s.polls.get(paymentId)
			if session == nil {
				return http.StatusNotFound, NewGenericApiFailureResponseBody(errPollSessionNotFound)
			}

			body := NewGenericApiSuccessResponseBody()
			body["session"] = newPollSessionView(session)
			return http.StatusOK, body
		}()

		writeJsonResponse(w, statusCode, body)
	}
}

func (s *Server) proxyHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.initErr != nil {
			statusCode, err := HandleErrorInWebContext(s.initErr)
			writeJsonResponse(w, statusCode, NewGenericApiFailureResponseBody(err))
			return
		}

		if s.proxy == nil {
			writeJsonResponse(w, http.StatusServiceUnavailable, NewGenericApiFailureResponseBody(errors.New("proxy is unavailable")))
			return
		}

		s.proxy.ServeHTTP(w, r)
	}
}

// newProxy forwards /api/proxy/<path> to <baseUrl>/<path>, keeping the query.
func newProxy(baseUrl string) (http.Handler, error) {
	target, err := netutil.ValidateHttpUrl(netutil.TrimTrailingSlashes(baseUrl), false)
	if err != nil {
		return nil, err
	}
	base := target.String()

	log := logrus.StandardLogger().WithField("type", "web/proxy")

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			rest := strings.TrimPrefix(pr.In.URL.Path, proxyPathPrefix)

			out, err := url.Parse(netutil.JoinBaseUrl(base, rest))
			if err != nil {
				out = &url.URL{Scheme: target.Scheme, Host: target.Host, Path: target.Path}
			}
			out.RawQuery = pr.In.URL.RawQuery

			pr.Out.URL = out
			pr.Out.Host = out.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.WithError(err).WithField("path", r.URL.Path).Warn("proxy request failed")
			writeJsonResponse(w, http.StatusBadGateway, NewGenericApiFailureResponseBody(errors.New("upstream request failed")))
		},
	}, nil
}

func (s *Server) allow(log *logrus.Entry, r *http.Request) bool {
	ip := clientIp(r)
	allowed, err := s.limiter.Allow(ip)
	if err != nil {
		log.WithError(err).Warn("failure checking rate limit")
		return true
	}
	if !allowed {
		log.WithField("ip", ip).Debug("rate limited")
	}
	return allowed
}

// Close stops every poll session started through the server.
func (s *Server) Close() {
	s.polls.stopAll()
}

func (s *Server) instrument(path string, handler http.HandlerFunc) http.HandlerFunc {
	if s.requests == nil {
		return handler
	}

	counter, err := s.requests.CurryWith(prometheus.Labels{"path": path})
	if err != nil {
		return handler
	}
	return promhttp.InstrumentHandlerCounter(counter, handler)
}

func (s *Server) GetHandlers() map[string]http.HandlerFunc {
	handlers := map[string]http.HandlerFunc{
		healthPath:         s.healthHandler(healthPath),
		configPath:         s.configHandler(configPath),
		menuPath:           s.menuHandler(menuPath),
		checkoutCreatePath: s.checkoutCreateHandler(checkoutCreatePath),
		checkoutGetPath:    s.checkoutGetHandler(checkoutGetPath),
		checkoutTogglePath: s.checkoutToggleHandler(checkoutTogglePath),
		checkoutPayPath:    s.checkoutPayHandler(checkoutPayPath),
		checkoutResetPath:  s.checkoutResetHandler(checkoutResetPath),
		checkoutRemovePath: s.checkoutRemoveHandler(checkoutRemovePath),
		checkoutQrPath:     s.checkoutQrHandler(checkoutQrPath),
		paymentStatusPath:  s.paymentStatusHandler(paymentStatusPath),
		paymentHistoryPath: s.paymentHistoryHandler(paymentHistoryPath),
		pollStartPath:      s.pollStartHandler(pollStartPath),
		pollStopPath:       s.pollStopHandler(pollStopPath),
		pollStatePath:      s.pollStateHandler(pollStatePath),
		proxyPathPrefix:    s.proxyHandler(proxyPathPrefix),
	}

	for path, handler := range handlers {
		handlers[path] = s.instrument(path, handler)
	}

	if s.registry != nil {
		handlers[metricsPath] = metrics.Handler(s.registry).ServeHTTP
	}

	return handlers
}
