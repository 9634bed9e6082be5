package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists learner keys in a single PostgreSQL table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS learner_kv (
			learner_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (learner_id, key)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, learnerID, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM learner_kv WHERE learner_id=$1 AND key=$2`,
		learnerID, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Put(ctx context.Context, learnerID, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, upsertSQL, learnerID, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

const upsertSQL = `INSERT INTO learner_kv (learner_id, key, value, updated_at)
	 VALUES ($1, $2, $3, now())
	 ON CONFLICT (learner_id, key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()`

func (s *PostgresStore) Delete(ctx context.Context, learnerID, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM learner_kv WHERE learner_id=$1 AND key=$2`, learnerID, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Update locks the row for the duration of fn. A placeholder row is inserted
// first so concurrent first writes also serialize on the row lock.
func (s *PostgresStore) Update(ctx context.Context, learnerID, key string, fn UpdateFunc) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO learner_kv (learner_id, key, value) VALUES ($1, $2, '') ON CONFLICT DO NOTHING`,
			learnerID, key,
		)
		if err != nil {
			return fmt.Errorf("reserve %s: %w", key, err)
		}

		var current []byte
		err = tx.QueryRow(ctx,
			`SELECT value FROM learner_kv WHERE learner_id=$1 AND key=$2 FOR UPDATE`,
			learnerID, key,
		).Scan(&current)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lock %s: %w", key, err)
		}
		if len(current) == 0 {
			current = nil
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upsertSQL, learnerID, key, next); err != nil {
			return fmt.Errorf("update %s: %w", key, err)
		}
		return nil
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
