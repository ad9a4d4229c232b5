package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS vibe_histories (
	id             UUID PRIMARY KEY,
	account_id     TEXT NOT NULL,
	repo_owner     TEXT NOT NULL,
	repo_name      TEXT NOT NULL,
	links          JSONB NOT NULL DEFAULT '[]'::jsonb,
	total_messages INTEGER NOT NULL,
	total_commits  INTEGER NOT NULL,
	analyzed_at    TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (account_id, repo_owner, repo_name)
)`

// Migrate creates the tables the service needs if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
