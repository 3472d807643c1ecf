package poller

import (
	"time"

	"github.com/sablepay/coffee-pos/pkg/config"
	"github.com/sablepay/coffee-pos/pkg/config/env"
	"github.com/sablepay/coffee-pos/pkg/config/memory"
	"github.com/sablepay/coffee-pos/pkg/config/wrapper"
)

const (
	envConfigPrefix = "POLLER_"

	IntervalConfigEnvName = envConfigPrefix + "INTERVAL"
	DefaultInterval       = 3 * time.Second

	// Zero disables the per-lookup timeout, so a lookup is bounded only by the
	// session and the HTTP client.
	LookupTimeoutConfigEnvName = envConfigPrefix + "LOOKUP_TIMEOUT"
	defaultLookupTimeout       = 0
)

type conf struct {
	interval      config.Duration
	lookupTimeout config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			interval:      env.NewDurationConfig(IntervalConfigEnvName, DefaultInterval),
			lookupTimeout: env.NewDurationConfig(LookupTimeoutConfigEnvName, defaultLookupTimeout),
		}
	}
}

// WithStaticConfigs returns fixed configuration values.
func WithStaticConfigs(interval, lookupTimeout time.Duration) ConfigProvider {
	return func() *conf {
		return &conf{
			interval:      wrapper.NewDurationConfig(memory.NewConfig(interval), DefaultInterval),
			lookupTimeout: wrapper.NewDurationConfig(memory.NewConfig(lookupTimeout), defaultLookupTimeout),
		}
	}
}
