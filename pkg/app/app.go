package app

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/metrics"
	"github.com/sablepay/coffee-pos/pkg/osutil"
)

// App is the storefront process served by Run. It is initialized before the
// HTTP server starts, and stopped once the server stops serving.
type App interface {
	// Init blocks until the app is ready for requests. metricsProvider is nil
	// when New Relic isn't configured.
	Init(ctx context.Context, config Config, metricsProvider *newrelic.Application) error

	// RegisterWithHTTP installs the app's handlers.
	RegisterWithHTTP(mux *http.ServeMux)

	// ShutdownChan is closed when the app stops on its own, which shuts the
	// server down too.
	ShutdownChan() <-chan struct{}

	// Stop releases the app's resources. It must be idempotent.
	Stop()
}

var osSigCh = make(chan os.Signal, 1)

func init() {
	signal.Notify(osSigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
}

// runner holds the process level resources around an App.
type runner struct {
	log    *logrus.Entry
	config *BaseConfig
	opts   opts

	metricsProvider *newrelic.Application
	ballast         []byte
	restartCh       chan struct{}
	cleanups        []func()
}

// Run initializes the app and serves it over HTTP until the process is
// signalled, the server fails, the restart cron fires, or the app shuts
// itself down.
func Run(app App, options ...Option) error {
	r := &runner{
		log:       logrus.StandardLogger().WithField("type", "app"),
		restartCh: make(chan struct{}),
	}
	for _, o := range options {
		o(&r.opts)
	}
	defer r.cleanup()

	var err error
	if r.config, err = LoadConfig(r.opts.configPath); err != nil {
		return err
	}

	if err := r.startMetrics(); err != nil {
		return err
	}
	ConfigureLogger(r.config, r.metricsProvider)

	// pprof and expvar register on the default mux at import time. They're
	// only ever served from the debug listener.
	http.DefaultServeMux = http.NewServeMux()
	r.startDebugServer()

	if r.config.EnableBallast {
		r.ballast = make([]byte, osutil.BallastSize(osutil.GetTotalMemory(), r.config.BallastCapacity))
	}

	if err := r.startRestartCron(); err != nil {
		return err
	}

	return r.serve(app)
}

// TODO: hide New Relic behind an interface so other providers can plug in.
func (r *runner) startMetrics() error {
	if len(r.config.NewRelicLicenseKey) == 0 {
		return nil
	}

	nr, err := newrelic.NewApplication(
		newrelic.ConfigFromEnvironment(),
		newrelic.ConfigAppName(r.config.AppName),
		newrelic.ConfigLicense(r.config.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return errors.Wrap(err, "error connecting to new relic")
	}

	r.metricsProvider = nr
	r.cleanups = append(r.cleanups, func() { nr.Shutdown(5 * time.Second) })
	return nil
}

func (r *runner) startRestartCron() error {
	if !r.config.EnableMemoryLeakCron {
		return nil
	}

	var once sync.Once
	restart := func() {
		once.Do(func() { close(r.restartCh) })
	}

	c := cron.New(cron.WithLocation(time.Local))
	if _, err := c.AddFunc(r.config.MemoryLeakCronSchedule, restart); err != nil {
		return errors.Wrap(err, "failed to schedule restart cron")
	}
	c.Start()

	r.cleanups = append(r.cleanups, func() { c.Stop() })
	return nil
}

func (r *runner) serve(app App) error {
	lis, err := net.Listen("tcp", r.config.ListenAddress)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", r.config.ListenAddress)
	}

	ctx := metrics.NewContext(context.Background(), r.metricsProvider)
	if err := app.Init(ctx, r.config.AppConfig, r.metricsProvider); err != nil {
		lis.Close()
		return errors.Wrap(err, "failed to initialize application")
	}

	mux := http.NewServeMux()
	app.RegisterWithHTTP(mux)

	server := &http.Server{
		Handler:           buildHandler(mux, r.metricsProvider, r.opts.middlewares),
		ReadHeaderTimeout: r.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	servingDone := make(chan struct{})
	go func() {
		defer close(servingDone)

		if err := server.Serve(lis); err != nil && err != http.ErrServerClosed {
			r.log.WithError(err).Error("http server failed")
		}
	}()
	r.log.WithField("address", lis.Addr().String()).Info("http server started")

	select {
	case sig := <-osSigCh:
		r.log.WithField("signal", sig.String()).Info("signal received, shutting down")
	case <-servingDone:
		r.log.Info("http server stopped, shutting down")
	case <-r.restartCh:
		r.log.Info("scheduled restart, shutting down")
	case <-app.ShutdownChan():
		r.log.Info("app stopped, shutting down")
	}

	return r.shutdown(server, app)
}

// shutdown drains the server and stops the app within the grace period. Both
// are idempotent, so they're called whatever triggered the shutdown.
func (r *runner) shutdown(server *http.Server, app App) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownGracePeriod)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		if err := server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Warn("http server did not drain in time")
		}
		app.Stop()
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return errors.Errorf("failed to stop within %v", r.config.ShutdownGracePeriod)
	}
}

func (r *runner) cleanup() {
	// Keeps the ballast reachable until exit.
	if len(r.ballast) > 0 {
		r.ballast[0] = 1
	}

	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i]()
	}
}

// buildHandler applies middlewares so the first one added runs first. The New
// Relic wrapper, when enabled, runs before all of them so every request gets
// a transaction.
func buildHandler(mux *http.ServeMux, metricsProvider *newrelic.Application, middlewares []Middleware) http.Handler {
	var handler http.Handler = mux
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	if metricsProvider != nil {
		_, handler = newrelic.WrapHandle(metricsProvider, "http", handler)
	}
	return handler
}
