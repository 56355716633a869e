package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/5n10/domain-lead-pipeline/internal/logging"
)

// Store is the pooled, liveness-probed connection layer long-running workers
// share. It wraps *sqlx.DB so repositories can scan directly into structs.
type Store struct {
	DB  *sqlx.DB
	log *logging.Logger

	stopPing chan struct{}
}

// Options configures pool sizing and recycling.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open establishes a Postgres connection pool and verifies connectivity.
func Open(ctx context.Context, dsn string, opts Options, log *logging.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	if log == nil {
		log = logging.NewDefault("store")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	lifetime := opts.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	db.SetConnMaxLifetime(lifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{DB: db, log: log, stopPing: make(chan struct{})}
	go s.livenessLoop(lifetime / 4)
	return s, nil
}

// livenessLoop pings periodically so dead connections are recycled before a
// worker picks one up mid-batch.
func (s *Store) livenessLoop(interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.DB.PingContext(ctx); err != nil {
				s.log.Warnf("store: liveness ping failed: %v", err)
			}
			cancel()
		case <-s.stopPing:
			return
		}
	}
}

// Close releases the pool.
func (s *Store) Close() error {
	close(s.stopPing)
	return s.DB.Close()
}

// querier is satisfied by both *sqlx.DB and *sqlx.Tx, letting repositories run
// either standalone or inside WithTx.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// WithTx runs fn inside a single transaction: acquire, execute, commit on
// success, rollback on any error or panic. No partial batch is ever committed.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	err = fn(tx)
	return err
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505), the signal callers use as a concurrency
// primitive rather than treating as a failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*pq.Error); ok {
		return pe.Code == "23505"
	}
	return false
}
