package pg

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// Config is the connection configuration for a Postgres database.
type Config struct {
	User               string
	Host               string
	Password           string
	Port               int
	DbName             string
	SslMode            string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// Dsn returns the connection string for the config.
func (c *Config) Dsn() string {
	sslMode := c.SslMode
	if len(sslMode) == 0 {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.DbName,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

// NewFromConfig gets a DB connection pool using the provided config. The
// connection goes through the New Relic instrumented pgx driver, so queries
// show up as datastore segments on traced transactions.
func NewFromConfig(config *Config) (*sql.DB, error) {
	if len(config.Host) == 0 || len(config.User) == 0 || len(config.DbName) == 0 {
		return nil, errors.New("postgres host, user and database name are required")
	}

	// Try to open a connection pool using the "pgx" driver (instead of "postgres")
	db, err := sql.Open("nrpgx", config.Dsn())
	if err != nil {
		return nil, errors.Wrap(err, "error opening postgres connection pool")
	}

	if config.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(config.MaxOpenConnections)
	}
	if config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(config.MaxIdleConnections)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	// Check if the connection was successful
	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error pinging postgres")
	}

	return db, nil
}
