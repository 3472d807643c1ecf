// Package test starts throwaway Postgres containers for store tests.
package test

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive

	"github.com/sablepay/coffee-pos/pkg/retry"
	"github.com/sablepay/coffee-pos/pkg/retry/backoff"
)

const (
	image    = "postgres"
	imageTag = "16-alpine"

	user     = "coffeepos"
	password = "coffeepos"
	dbname   = "coffee_pos_test"

	// Docker kills the container after this, even if the test binary dies.
	containerLifetime = 2 * time.Minute
	startupTimeout    = 30 * time.Second
)

// StartPostgresDB runs a Postgres container and returns a connection to it
// once it accepts queries. closeFunc closes the connection and removes the
// container.
func StartPostgresDB(pool *dockertest.Pool) (db *sql.DB, closeFunc func(), err error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        imageTag,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, func() {}, errors.Wrap(err, "error starting postgres container")
	}
	_ = resource.Expire(uint(containerLifetime.Seconds()))

	purge := func() {
		_ = pool.Purge(resource)
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		user, password, resource.GetHostPort("5432/tcp"), dbname,
	)

	db, err = sql.Open("pgx", dsn)
	if err != nil {
		purge()
		return nil, func() {}, errors.Wrap(err, "error opening postgres connection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	_, err = retry.Do(
		ctx,
		db.PingContext,
		retry.Backoff(backoff.Constant(250*time.Millisecond), 250*time.Millisecond),
	)
	if err != nil {
		db.Close()
		purge()
		return nil, func() {}, errors.Wrap(err, "postgres container never became available")
	}

	return db, func() {
		db.Close()
		purge()
	}, nil
}
