package web

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/app"
	"github.com/sablepay/coffee-pos/pkg/config"
	"github.com/sablepay/coffee-pos/pkg/config/env"
	"github.com/sablepay/coffee-pos/pkg/data/payment"
	payment_memory "github.com/sablepay/coffee-pos/pkg/data/payment/memory"
	payment_postgres "github.com/sablepay/coffee-pos/pkg/data/payment/postgres"
	pg "github.com/sablepay/coffee-pos/pkg/database/postgres"
	"github.com/sablepay/coffee-pos/pkg/lock"
	lock_memory "github.com/sablepay/coffee-pos/pkg/lock/memory"
	lock_redis "github.com/sablepay/coffee-pos/pkg/lock/redis"
	"github.com/sablepay/coffee-pos/pkg/metrics"
	"github.com/sablepay/coffee-pos/pkg/notify"
	"github.com/sablepay/coffee-pos/pkg/poller"
	"github.com/sablepay/coffee-pos/pkg/pos"
	"github.com/sablepay/coffee-pos/pkg/qr"
	"github.com/sablepay/coffee-pos/pkg/sablepay"
)

const (
	PaymentStoreConfigEnvName = "PAYMENT_STORE"
	defaultPaymentStore       = paymentStoreMemory

	RedisAddressConfigEnvName = "REDIS_ADDRESS"
	defaultRedisAddress       = ""

	RedisLockTtlConfigEnvName = "REDIS_LOCK_TTL"
	defaultRedisLockTtl       = 10 * time.Second

	paymentStoreMemory   = "memory"
	paymentStorePostgres = "postgres"

	lockRootKey = "coffee-pos/locks"
)

type appConf struct {
	paymentStore config.String
	redisAddress config.String
	redisLockTtl config.Duration
}

func withAppEnvConfigs() *appConf {
	return &appConf{
		paymentStore: env.NewStringConfig(PaymentStoreConfigEnvName, defaultPaymentStore),
		redisAddress: env.NewStringConfig(RedisAddressConfigEnvName, defaultRedisAddress),
		redisLockTtl: env.NewDurationConfig(RedisLockTtlConfigEnvName, defaultRedisLockTtl),
	}
}

type storefrontApp struct {
	log *logrus.Entry

	server    *Server
	checkouts *pos.Registry
	locks     lock.Manager
	db        *sql.DB
	redis     *redis.Client

	cancel     context.CancelFunc
	shutdownCh chan struct{}
	stopOnce   sync.Once
}

// NewApp returns the storefront as an app.App, ready to be passed to app.Run.
func NewApp() app.App {
	return &storefrontApp{
		log:        logrus.StandardLogger().WithField("type", "web/app"),
		shutdownCh: make(chan struct{}),
	}
}

// Init implements app.App.Init.
//
// Missing SablePay configuration doesn't fail initialization. The storefront
// still serves, and reports the configuration error on every endpoint that
// needs the client.
func (a *storefrontApp) Init(ctx context.Context, _ app.Config, _ *newrelic.Application) error {
	var sessionCtx context.Context
	sessionCtx, a.cancel = context.WithCancel(ctx)

	conf := withAppEnvConfigs()
	webConfigProvider := WithEnvConfigs()

	sablepayConf := sablepay.LoadConfig(ctx, sablepay.WithEnvConfigs())
	a.log.WithField("environment", sablepayConf.Environment().String()).Info("sablepay configured")

	httpClient := &http.Client{
		Timeout:   sablepayConf.HttpTimeout,
		Transport: newrelic.NewRoundTripper(nil),
	}
	client, err := sablepay.NewClient(sablepayConf, sablepay.WithHttpClient(httpClient))
	if err != nil {
		a.log.WithError(err).Warn("sablepay client not initialized")
		client = nil
	}

	store, err := a.initPaymentStore(ctx, conf)
	if err != nil {
		a.cleanup()
		return err
	}

	a.locks, err = a.initLockManager(ctx, conf)
	if err != nil {
		a.cleanup()
		return err
	}

	notifier, err := notify.New(ctx, notify.WithEnvConfigs())
	if err != nil {
		a.cleanup()
		return errors.Wrap(err, "error initializing outcome notifier")
	}

	registry := metrics.NewRegistry()
	p := poller.New(client, poller.WithEnvConfigs(), poller.WithRegisterer(registry))

	qrOptions := qr.DefaultRenderOptions()
	qrOptions.Size = int(webConfigProvider().qrSize.Get(ctx))

	a.checkouts = pos.NewRegistry(func() *pos.Checkout {
		return pos.NewCheckout(
			client,
			p,
			store,
			pos.WithNotifier(notifier),
			pos.WithQrOptions(qrOptions),
			pos.WithSessionContext(sessionCtx),
		)
	}, pos.DefaultMaxCheckouts)

	a.server = NewServer(
		webConfigProvider,
		sablepayConf,
		client,
		p,
		a.checkouts,
		store,
		a.locks,
		WithMetricsRegistry(registry),
		WithSessionContext(sessionCtx),
	)

	return nil
}

func (a *storefrontApp) initPaymentStore(ctx context.Context, conf *appConf) (payment.Store, error) {
	switch backend := strings.ToLower(strings.TrimSpace(conf.paymentStore.Get(ctx))); backend {
	case paymentStoreMemory, "":
		return payment_memory.New(), nil
	case paymentStorePostgres:
		db, err := pg.NewFromConfig(pg.LoadConfig(ctx, pg.WithEnvConfigs()))
		if err != nil {
			return nil, errors.Wrap(err, "error connecting to postgres")
		}
		a.db = db
		return payment_postgres.New(db), nil
	default:
		return nil, errors.Errorf("unsupported payment store: %s", backend)
	}
}

func (a *storefrontApp) initLockManager(ctx context.Context, conf *appConf) (lock.Manager, error) {
	address := strings.TrimSpace(conf.redisAddress.Get(ctx))
	if len(address) == 0 {
		return lock_memory.NewLockManager(), nil
	}

	a.redis = redis.NewClient(&redis.Options{Addr: address})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "error connecting to redis")
	}

	manager, err := lock_redis.NewLockManager(a.redis, lockRootKey, conf.redisLockTtl.Get(ctx))
	if err != nil {
		return nil, err
	}
	return manager, nil
}

// RegisterWithHTTP implements app.App.RegisterWithHTTP.
func (a *storefrontApp) RegisterWithHTTP(mux *http.ServeMux) {
	for path, handler := range a.server.GetHandlers() {
		mux.HandleFunc(path, handler)
	}
}

// ShutdownChan implements app.App.ShutdownChan.
func (a *storefrontApp) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

// Stop implements app.App.Stop.
func (a *storefrontApp) Stop() {
	a.stopOnce.Do(func() {
		if a.server != nil {
			a.server.Close()
		}
		if a.checkouts != nil {
			a.checkouts.Close()
		}
		a.cleanup()

		close(a.shutdownCh)
	})
}

func (a *storefrontApp) cleanup() {
	if a.cancel != nil {
		a.cancel()
	}

	if a.locks != nil {
		if err := a.locks.Close(); err != nil {
			a.log.WithError(err).Warn("failure closing lock manager")
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("failure closing redis client")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("failure closing postgres connection pool")
		}
	}
}
