package notify

import (
	"time"

	"github.com/sablepay/coffee-pos/pkg/config"
	"github.com/sablepay/coffee-pos/pkg/config/env"
	"github.com/sablepay/coffee-pos/pkg/config/memory"
	"github.com/sablepay/coffee-pos/pkg/config/wrapper"
)

const (
	envConfigPrefix = "NOTIFY_"

	// Empty disables the webhook.
	WebhookUrlConfigEnvName = envConfigPrefix + "WEBHOOK_URL"
	defaultWebhookUrl       = ""

	// Base58 encoded ed25519 seed used to sign webhook JWTs.
	SigningKeyConfigEnvName = envConfigPrefix + "SIGNING_KEY"
	defaultSigningKey       = ""

	TimeoutConfigEnvName = envConfigPrefix + "TIMEOUT"
	defaultTimeout       = 3 * time.Second
)

type conf struct {
	webhookUrl config.String
	signingKey config.String
	timeout    config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			webhookUrl: env.NewStringConfig(WebhookUrlConfigEnvName, defaultWebhookUrl),
			signingKey: env.NewStringConfig(SigningKeyConfigEnvName, defaultSigningKey),
			timeout:    env.NewDurationConfig(TimeoutConfigEnvName, defaultTimeout),
		}
	}
}

// WithStaticConfigs returns fixed configuration values.
func WithStaticConfigs(webhookUrl, signingKey string, timeout time.Duration) ConfigProvider {
	return func() *conf {
		return &conf{
			webhookUrl: wrapper.NewStringConfig(memory.NewConfig(webhookUrl), defaultWebhookUrl),
			signingKey: wrapper.NewStringConfig(memory.NewConfig(signingKey), defaultSigningKey),
			timeout:    wrapper.NewDurationConfig(memory.NewConfig(timeout), defaultTimeout),
		}
	}
}
