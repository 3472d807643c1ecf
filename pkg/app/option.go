package app

import (
	"net/http"
)

// Middleware wraps the app's HTTP handler.
type Middleware func(next http.Handler) http.Handler

// Option configures the environment run by Run().
type Option func(o *opts)

type opts struct {
	configPath  string
	middlewares []Middleware
}

// WithConfigPath loads the base configuration from a YAML file. A missing
// file isn't an error.
func WithConfigPath(path string) Option {
	return func(o *opts) {
		o.configPath = path
	}
}

// WithMiddleware configures the app's HTTP server to use the provided
// middleware.
//
// Middlewares are evaluated in addition order, and configured middlewares are
// executed after the app's default ones.
func WithMiddleware(middleware Middleware) Option {
	return func(o *opts) {
		o.middlewares = append(o.middlewares, middleware)
	}
}
