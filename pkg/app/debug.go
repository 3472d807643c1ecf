package app

import (
	"expvar"
	"net/http"
	"net/http/pprof"
	"time"
)

const debugServerRetryDelay = 5 * time.Second

func (r *runner) startDebugServer() {
	mux := newDebugMux(r.config)
	if mux == nil {
		return
	}

	go func() {
		for {
			err := http.ListenAndServe(r.config.DebugListenAddress, mux)
			r.log.WithError(err).Warnf("debug server failed, retrying in %v", debugServerRetryDelay)
			time.Sleep(debugServerRetryDelay)
		}
	}()
}

// newDebugMux returns the pprof and expvar handlers that are enabled, or nil
// when neither is.
func newDebugMux(config *BaseConfig) *http.ServeMux {
	if !config.EnableExpvar && !config.EnablePprof {
		return nil
	}

	mux := http.NewServeMux()
	if config.EnableExpvar {
		mux.Handle("/debug/vars", expvar.Handler())
	}
	if config.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}
