// Package sqlstore persists ranked lists in SQLite or PostgreSQL through database/sql.
//
// Timestamps are stored as Unix milliseconds. An item's updated_at doubles as its version
// for snapshot pagination, and the (list_id, rank) pair is unique, so rank collisions
// surface as *store.RankCollisionError.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rshade/rankline/internal/batch"
	"github.com/rshade/rankline/internal/store/sqlstore/migrations"
)

// Config selects and tunes the database connection.
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock stamping created_at, updated_at and minted versions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBatchSize sets how many rows ApplyRanks updates per batch.
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n >= batch.MinBatchSize && n <= batch.MaxBatchSize {
			s.batchSize = n
		}
	}
}

// maxMintWait bounds how long CurrentVersion waits for the clock to leave the minted
// millisecond.
const maxMintWait = 10 * time.Millisecond

// Store is a SQL-backed store of lists and items. It is safe for concurrent use.
type Store struct {
	db        *sql.DB
	dialect   dialect
	now       func() time.Time
	batchSize int

	clockMu    sync.Mutex
	lastStamp  int64
	lastMinted int64
}

// Open connects to the configured database, verifies the connection and applies pending
// migrations.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	if d.name == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", d.name, err)
	}
	conns := cfg.MaxOpenConns
	if conns <= 0 {
		conns = d.defaultConns
	}
	db.SetMaxOpenConns(conns)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", d.name, err)
	}

	s := &Store{db: db, dialect: d, now: time.Now, batchSize: batch.DefaultBatchSize}
	for _, opt := range opts {
		opt(s)
	}

	if err = applyMigrations(ctx, db, d, migrations.FS, d.migrationRoot); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver returns the name of the dialect in use.
func (s *Store) Driver() string {
	return s.dialect.name
}

// stamp returns the timestamp of a write: the clock in milliseconds, but always after
// the last version this store minted.
func (s *Store) stamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	ms := max(toMillis(s.now()), s.lastMinted+1)
	s.lastStamp = max(s.lastStamp, ms)
	return fromMillis(ms)
}

// mint returns a version covering every write this store has stamped so far. Writes
// stamped afterwards land strictly later.
func (s *Store) mint() int64 {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	v := max(toMillis(s.now()), s.lastStamp)
	s.lastMinted = max(s.lastMinted, v)
	return v
}

// waitPast blocks until the clock has left millisecond v, so writers in other processes
// sharing the database also stamp after it. Clocks that stand still give up after
// maxMintWait.
func (s *Store) waitPast(ctx context.Context, v int64) error {
	deadline := time.Now().Add(maxMintWait)
	for toMillis(s.now()) <= v && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Microsecond):
		}
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner func(dest ...any) error

// inTx runs fn in a transaction, committing on success and rolling back otherwise.
func (s *Store) inTx(ctx context.Context, what string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", what, err)
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w: rollback %s: %v", err, what, rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", what, err)
	}
	return nil
}
