package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"ats-expert/internal/shared/telemetry"
)

// Options controls the pool and the startup connectivity check.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	// PingAttempts > 1 retries the startup ping with linear backoff, for
	// databases that come up after the API container.
	PingAttempts int
	PingBackoff  time.Duration
}

var (
	openDB = sql.Open
	sleep  = func(ctx context.Context, d time.Duration) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
)

// DefaultServerOptions suits the long-running API process.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
		PingAttempts:    3,
		PingBackoff:     time.Second,
	}
}

// DefaultMigrateOptions suits the one-shot migrate command.
func DefaultMigrateOptions() Options {
	return Options{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
		PingAttempts: 1,
	}
}

// OptionsFromEnv applies DB_* overrides on top of defaults. Unparsable values
// are logged and ignored.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	ints := map[string]*int{
		"DB_MAX_OPEN_CONNS": &opts.MaxOpenConns,
		"DB_MAX_IDLE_CONNS": &opts.MaxIdleConns,
		"DB_PING_ATTEMPTS":  &opts.PingAttempts,
	}
	for key, dst := range ints {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err})
				continue
			}
			*dst = v
		}
	}
	durations := map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":  &opts.ConnMaxLifetime,
		"DB_CONN_MAX_IDLE_TIME": &opts.ConnMaxIdleTime,
		"DB_PING_TIMEOUT":       &opts.PingTimeout,
		"DB_PING_BACKOFF":       &opts.PingBackoff,
	}
	for key, dst := range durations {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			v, err := time.ParseDuration(raw)
			if err != nil {
				telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err})
				continue
			}
			*dst = v
		}
	}
	return opts
}

// Connect opens a pooled *sql.DB for databaseURL and waits until it answers a
// ping. Callers share the returned handle.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyOptions(db, opts)

	if err := ping(ctx, db, opts); err != nil {
		_ = db.Close()
		return nil, err
	}

	stats := db.Stats()
	telemetry.Info("db.connected", map[string]any{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
	})
	return db, nil
}

func ping(ctx context.Context, db *sql.DB, opts Options) error {
	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	attempts := max(opts.PingAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		telemetry.Warn("db.ping_retry", map[string]any{"attempt": attempt, "error": err})
		if serr := sleep(ctx, time.Duration(attempt)*opts.PingBackoff); serr != nil {
			return fmt.Errorf("ping database: %w", serr)
		}
	}
	return fmt.Errorf("ping database after %d attempts: %w", attempts, err)
}

func applyOptions(db *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}
