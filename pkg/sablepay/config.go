package sablepay

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sablepay/coffee-pos/pkg/config"
	"github.com/sablepay/coffee-pos/pkg/config/env"
	"github.com/sablepay/coffee-pos/pkg/config/memory"
	"github.com/sablepay/coffee-pos/pkg/config/wrapper"
	"github.com/sablepay/coffee-pos/pkg/netutil"
)

const (
	ApiKeyConfigEnvName     = "PUBLIC_SABLEPAY_API_KEY"
	MerchantIdConfigEnvName = "PUBLIC_SABLEPAY_MERCHANT_ID"
	BaseUrlConfigEnvName    = "PUBLIC_SABLEPAY_BASE_URL"

	envConfigPrefix = "SABLEPAY_"

	HttpTimeoutConfigEnvName = envConfigPrefix + "HTTP_TIMEOUT"
	defaultHttpTimeout       = 15 * time.Second

	// A single attempt means lookups are never retried by the client. Pollers
	// rely on this to surface the first failure.
	MaxAttemptsConfigEnvName = envConfigPrefix + "MAX_ATTEMPTS"
	defaultMaxAttempts       = 1

	BreakerFailuresConfigEnvName = envConfigPrefix + "BREAKER_FAILURES"
	defaultBreakerFailures       = 5

	BreakerCooldownConfigEnvName = envConfigPrefix + "BREAKER_COOLDOWN"
	defaultBreakerCooldown       = 30 * time.Second
)

// Config is the resolved configuration of a SablePay client.
type Config struct {
	ApiKey     string
	MerchantId string
	BaseUrl    string

	HttpTimeout     time.Duration
	MaxAttempts     uint64
	BreakerFailures uint64
	BreakerCooldown time.Duration
}

// Validate returns ErrMissingConfiguration when any of the credentials or the
// base URL are missing.
func (c *Config) Validate() error {
	if len(c.ApiKey) == 0 || len(c.MerchantId) == 0 || len(c.BaseUrl) == 0 {
		return ErrMissingConfiguration
	}

	if _, err := netutil.ValidateHttpUrl(c.BaseUrl, false); err != nil {
		return errors.Wrap(err, "invalid sablepay base url")
	}

	return nil
}

// Environment labels the configured base URL.
func (c *Config) Environment() Environment {
	return EnvironmentForBaseUrl(c.BaseUrl)
}

type conf struct {
	apiKey          config.String
	merchantId      config.String
	baseUrl         config.String
	httpTimeout     config.Duration
	maxAttempts     config.Uint64
	breakerFailures config.Uint64
	breakerCooldown config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			apiKey:          env.NewStringConfig(ApiKeyConfigEnvName, ""),
			merchantId:      env.NewStringConfig(MerchantIdConfigEnvName, ""),
			baseUrl:         env.NewStringConfig(BaseUrlConfigEnvName, ""),
			httpTimeout:     env.NewDurationConfig(HttpTimeoutConfigEnvName, defaultHttpTimeout),
			maxAttempts:     env.NewUint64Config(MaxAttemptsConfigEnvName, defaultMaxAttempts),
			breakerFailures: env.NewUint64Config(BreakerFailuresConfigEnvName, defaultBreakerFailures),
			breakerCooldown: env.NewDurationConfig(BreakerCooldownConfigEnvName, defaultBreakerCooldown),
		}
	}
}

// WithStaticConfigs returns configuration with fixed credentials and the
// default tuning values.
func WithStaticConfigs(apiKey, merchantId, baseUrl string) ConfigProvider {
	return func() *conf {
		return &conf{
			apiKey:          wrapper.NewStringConfig(memory.NewConfig(apiKey), ""),
			merchantId:      wrapper.NewStringConfig(memory.NewConfig(merchantId), ""),
			baseUrl:         wrapper.NewStringConfig(memory.NewConfig(baseUrl), ""),
			httpTimeout:     wrapper.NewDurationConfig(memory.NewConfig(defaultHttpTimeout), defaultHttpTimeout),
			maxAttempts:     wrapper.NewUint64Config(memory.NewConfig(uint64(defaultMaxAttempts)), defaultMaxAttempts),
			breakerFailures: wrapper.NewUint64Config(memory.NewConfig(uint64(defaultBreakerFailures)), defaultBreakerFailures),
			breakerCooldown: wrapper.NewDurationConfig(memory.NewConfig(defaultBreakerCooldown), defaultBreakerCooldown),
		}
	}
}

// LoadConfig resolves the provider into a Config. Surrounding whitespace is
// trimmed from the credentials and base URL.
func LoadConfig(ctx context.Context, provider ConfigProvider) *Config {
	c := provider()
	return &Config{
		ApiKey:          strings.TrimSpace(c.apiKey.Get(ctx)),
		MerchantId:      strings.TrimSpace(c.merchantId.Get(ctx)),
		BaseUrl:         strings.TrimSpace(c.baseUrl.Get(ctx)),
		HttpTimeout:     c.httpTimeout.Get(ctx),
		MaxAttempts:     c.maxAttempts.Get(ctx),
		BreakerFailures: c.breakerFailures.Get(ctx),
		BreakerCooldown: c.breakerCooldown.Get(ctx),
	}
}
