package web

import (
	"time"

	"github.com/sablepay/coffee-pos/pkg/config"
	"github.com/sablepay/coffee-pos/pkg/config/env"
	"github.com/sablepay/coffee-pos/pkg/config/memory"
	"github.com/sablepay/coffee-pos/pkg/config/wrapper"
	"github.com/sablepay/coffee-pos/pkg/qr"
)

const (
	envConfigPrefix = "WEB_"

	// Requests per second per client IP for checkout creation and payment.
	// Zero disables the limit.
	CheckoutRateLimitConfigEnvName = envConfigPrefix + "CHECKOUT_RATE_LIMIT"
	defaultCheckoutRateLimit       = 1.0

	QrSizeConfigEnvName = envConfigPrefix + "QR_SIZE"
	defaultQrSize       = qr.DefaultSize

	PollLockTimeoutConfigEnvName = envConfigPrefix + "POLL_LOCK_TIMEOUT"
	defaultPollLockTimeout       = time.Second
)

type conf struct {
	checkoutRateLimit config.Float64
	qrSize            config.Uint64
	pollLockTimeout   config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			checkoutRateLimit: env.NewFloat64Config(CheckoutRateLimitConfigEnvName, defaultCheckoutRateLimit),
			qrSize:            env.NewUint64Config(QrSizeConfigEnvName, defaultQrSize),
			pollLockTimeout:   env.NewDurationConfig(PollLockTimeoutConfigEnvName, defaultPollLockTimeout),
		}
	}
}

// WithStaticConfigs returns fixed configuration values.
func WithStaticConfigs(checkoutRateLimit float64, qrSize uint64, pollLockTimeout time.Duration) ConfigProvider {
	return func() *conf {
		return &conf{
			checkoutRateLimit: wrapper.NewFloat64Config(memory.NewConfig(checkoutRateLimit), defaultCheckoutRateLimit),
			qrSize:            wrapper.NewUint64Config(memory.NewConfig(qrSize), defaultQrSize),
			pollLockTimeout:   wrapper.NewDurationConfig(memory.NewConfig(pollLockTimeout), defaultPollLockTimeout),
		}
	}
}
