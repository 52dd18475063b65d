package database

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/academic-planner-api/pkg/config"
)

const (
	defaultConnMaxLifetime = time.Hour
	defaultConnMaxIdleTime = 30 * time.Minute
	defaultConnectTimeout  = 5 * time.Second
	retryBackoff           = 500 * time.Millisecond
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// NewPostgres opens the planner database and waits until it answers a ping. A failed ping is
// retried cfg.ConnectRetries times.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, err
	}
	configurePool(db, cfg)

	if err := pingWithRetry(ctx, db, cfg.ConnectTimeout, cfg.ConnectRetries, retryBackoff); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect postgres %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	return db, nil
}

// DSN builds a lib/pq key/value connection string with every value quoted.
func DSN(cfg config.DatabaseConfig) string {
	parts := []string{
		dsnValue("host", cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		dsnValue("user", cfg.User),
		dsnValue("password", cfg.Password),
		dsnValue("dbname", cfg.Name),
		dsnValue("sslmode", cfg.SSLMode),
	}
	if cfg.ApplicationName != "" {
		parts = append(parts, dsnValue("application_name", cfg.ApplicationName))
	}
	if cfg.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(math.Ceil(cfg.ConnectTimeout.Seconds()))))
	}
	return strings.Join(parts, " ")
}

func dsnValue(key, value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return fmt.Sprintf("%s='%s'", key, value)
}

func configurePool(db *sqlx.DB, cfg config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	idle := cfg.MaxIdleConns
	if cfg.MaxOpenConns > 0 && idle > cfg.MaxOpenConns {
		idle = cfg.MaxOpenConns
	}
	if idle > 0 {
		db.SetMaxIdleConns(idle)
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)
}

// pingWithRetry makes 1+retries ping attempts, each bounded by timeout, waiting a linearly
// growing backoff in between.
func pingWithRetry(ctx context.Context, db pinger, timeout time.Duration, retries int, backoff time.Duration) error {
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	if retries < 0 {
		retries = 0
	}
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
	}
	return err
}
