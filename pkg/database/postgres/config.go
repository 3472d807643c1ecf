package pg

import (
	"context"
	"time"

	"github.com/sablepay/coffee-pos/pkg/config"
	"github.com/sablepay/coffee-pos/pkg/config/env"
)

const (
	envConfigPrefix = "POSTGRES_"

	UserConfigEnvName = envConfigPrefix + "USER"
	defaultUser       = "postgres"

	PasswordConfigEnvName = envConfigPrefix + "PASSWORD"
	defaultPassword       = ""

	HostConfigEnvName = envConfigPrefix + "HOST"
	defaultHost       = "localhost"

	PortConfigEnvName = envConfigPrefix + "PORT"
	defaultPort       = 5432

	DbNameConfigEnvName = envConfigPrefix + "DB"
	defaultDbName       = "coffee_pos"

	SslModeConfigEnvName = envConfigPrefix + "SSL_MODE"
	defaultSslMode       = "disable"

	MaxOpenConnectionsConfigEnvName = envConfigPrefix + "MAX_OPEN_CONNECTIONS"
	defaultMaxOpenConnections       = 10

	MaxIdleConnectionsConfigEnvName = envConfigPrefix + "MAX_IDLE_CONNECTIONS"
	defaultMaxIdleConnections       = 5

	ConnMaxLifetimeConfigEnvName = envConfigPrefix + "CONN_MAX_LIFETIME"
	defaultConnMaxLifetime       = 30 * time.Minute
)

type conf struct {
	user               config.String
	password           config.String
	host               config.String
	port               config.Uint64
	dbName             config.String
	sslMode            config.String
	maxOpenConnections config.Uint64
	maxIdleConnections config.Uint64
	connMaxLifetime    config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			user:               env.NewStringConfig(UserConfigEnvName, defaultUser),
			password:           env.NewStringConfig(PasswordConfigEnvName, defaultPassword),
			host:               env.NewStringConfig(HostConfigEnvName, defaultHost),
			port:               env.NewUint64Config(PortConfigEnvName, defaultPort),
			dbName:             env.NewStringConfig(DbNameConfigEnvName, defaultDbName),
			sslMode:            env.NewStringConfig(SslModeConfigEnvName, defaultSslMode),
			maxOpenConnections: env.NewUint64Config(MaxOpenConnectionsConfigEnvName, defaultMaxOpenConnections),
			maxIdleConnections: env.NewUint64Config(MaxIdleConnectionsConfigEnvName, defaultMaxIdleConnections),
			connMaxLifetime:    env.NewDurationConfig(ConnMaxLifetimeConfigEnvName, defaultConnMaxLifetime),
		}
	}
}

// LoadConfig resolves the provider into a connection Config.
func LoadConfig(ctx context.Context, provider ConfigProvider) *Config {
	c := provider()
	return &Config{
		User:               c.user.Get(ctx),
		Password:           c.password.Get(ctx),
		Host:               c.host.Get(ctx),
		Port:               int(c.port.Get(ctx)),
		DbName:             c.dbName.Get(ctx),
		SslMode:            c.sslMode.Get(ctx),
		MaxOpenConnections: int(c.maxOpenConnections.Get(ctx)),
		MaxIdleConnections: int(c.maxIdleConnections.Get(ctx)),
		ConnMaxLifetime:    c.connMaxLifetime.Get(ctx),
	}
}
