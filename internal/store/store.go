// Package store persists learners, curriculum, attempts and engine output in
// SQLite (embedded) or PostgreSQL. Queries are built with ent's SQL builder
// and the schema is migrated with ent's migrate engine.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// PostgreSQL driver.
	_ "github.com/lib/pq"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// conn is satisfied by *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the database handle.
type Store struct {
	db      *sql.DB
	dialect string
}

// Open connects to dsn and migrates the schema. DSNs starting with
// postgres:// or postgresql:// use PostgreSQL; anything else is a SQLite
// path or URI.
func Open(dsn string) (*Store, error) {
	ctx := context.Background()

	driverName, dia := "sqlite", dialect.SQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driverName, dia = "postgres", dialect.Postgres
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dia == dialect.SQLite {
		// One connection keeps pragmas applied and serialises writers.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	} else if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	m, err := schema.NewMigrate(entsql.OpenDB(dia, db))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db, dialect: dia}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Users       UserRepo
	Curriculum  CurriculumRepo
	Questions   QuestionRepo
	Attempts    AttemptRepo
	Exams       ExamRepo
	Snapshots   SnapshotRepo
	Schedules   ScheduleRepo
	Suggestions SuggestionRepo
}

func newRepos(c conn, dia string) Repos {
	q := querier{c: c, b: entsql.Dialect(dia)}
	return Repos{
		Users:       &userRepo{q},
		Curriculum:  &curriculumRepo{q},
		Questions:   &questionRepo{q},
		Attempts:    &attemptRepo{q},
		Exams:       &examRepo{q},
		Snapshots:   &snapshotRepo{q},
		Schedules:   &scheduleRepo{q},
		Suggestions: &suggestionRepo{q},
	}
}

// Repos returns repositories running outside any transaction.
func (s *Store) Repos() Repos {
	return newRepos(s.db, s.dialect)
}

// InTx runs fn with repositories bound to a single transaction, committing
// when fn returns nil and rolling back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(newRepos(tx, s.dialect)); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// IsUnavailable reports errors meaning the database cannot be reached, as
// opposed to a problem with one user's data.
func IsUnavailable(err error) bool {
	return errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) ||
		(err != nil && strings.Contains(err.Error(), "database is closed"))
}

// querier pairs a connection with a dialect-aware builder.
type querier struct {
	c conn
	b *entsql.DialectBuilder
}

func (q querier) exec(ctx context.Context, b entsql.Querier) (sql.Result, error) {
	query, args := b.Query()
	return q.c.ExecContext(ctx, query, args...)
}

func (q querier) query(ctx context.Context, b entsql.Querier) (*sql.Rows, error) {
	query, args := b.Query()
	return q.c.QueryContext(ctx, query, args...)
}

func (q querier) queryRow(ctx context.Context, b entsql.Querier) *sql.Row {
	query, args := b.Query()
	return q.c.QueryRowContext(ctx, query, args...)
}

// applyPragmas configures SQLite for a single-process server.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database location in priority order:
// 1. PREPCOACH_DB environment variable
// 2. $XDG_DATA_HOME/prepcoach/prepcoach.db
// 3. ~/.local/share/prepcoach/prepcoach.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PREPCOACH_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "prepcoach", "prepcoach.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of a SQLite path. DSNs with a
// scheme are left alone.
func EnsureDir(path string) error {
	if strings.Contains(path, "://") || strings.HasPrefix(path, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
