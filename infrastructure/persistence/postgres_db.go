package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"content-scheduler/infrastructure/configuration"
	"content-scheduler/infrastructure/logger"

	"github.com/codeGROOVE-dev/retry"
	_ "github.com/lib/pq"
)

// NewPostgreSQLDB opens the primary store and waits for it to accept connections.
func NewPostgreSQLDB(ctx context.Context) (*sql.DB, error) {
	cfg := configuration.C.Database.Psql
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:   cfg.Name,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()

	db, err := sql.Open("postgres", u.String())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := pingWithRetry(ctx, db, "postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// pingWithRetry covers the window where the database container is still starting.
func pingWithRetry(ctx context.Context, db *sql.DB, vendor string) error {
	return retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.MaxDelay(15*time.Second),
		retry.Context(ctx),
		retry.MaxJitter(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			logger.GetLogger().
				WithField("vendor", vendor).
				WithField("attempt", n+1).
				WithField("error", err).
				Warn("database not reachable yet, retrying")
		}),
	)
}
