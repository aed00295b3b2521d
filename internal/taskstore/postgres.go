package taskstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the subset of *pgxpool.Pool the Postgres store needs.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

const (
	createTasksTableQuery = `
		CREATE TABLE IF NOT EXISTS dedup_tasks (
			id TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);
	`
	pruneTasksQuery = `DELETE FROM dedup_tasks WHERE expires_at <= $1;`
	putTaskQuery    = `
		INSERT INTO dedup_tasks (id, payload, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at;
	`
	getTaskQuery    = `SELECT payload FROM dedup_tasks WHERE id = $1 AND expires_at > $2;`
	deleteTaskQuery = `DELETE FROM dedup_tasks WHERE id = $1;`
)

// PostgresStore implements Store on a shared PostgreSQL table so several
// instances can serve downloads for each other's analyses.
type PostgresStore struct {
	db  Database
	now func() time.Time
}

// NewPostgresStore wraps an existing connection. The schema is not created;
// call EnsureSchema for that.
func NewPostgresStore(db Database) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// OpenPostgres connects to dsn, verifies the connection and creates the table.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	s := NewPostgresStore(pool)
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the tasks table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTasksTableQuery); err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}
	return nil
}

// Put upserts value under key and drops expired rows.
func (s *PostgresStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	if _, err := s.db.Exec(ctx, pruneTasksQuery, now); err != nil {
		return unavailable("prune tasks", err)
	}
	if _, err := s.db.Exec(ctx, putTaskQuery, key, value, now.Add(ttl)); err != nil {
		return unavailable("put task", err)
	}
	return nil
}

// Get returns the unexpired payload stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRow(ctx, getTaskQuery, key, s.now()).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get task", err)
	}
	return payload, nil
}

// Delete removes key.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, deleteTaskQuery, key); err != nil {
		return unavailable("delete task", err)
	}
	return nil
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
