package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/feedline/internal/config"
)

func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// Ids come from sequences: unique and increasing, but a failed insert
// leaves a gap.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		avatar        TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL DEFAULT '',
		background    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id            BIGSERIAL PRIMARY KEY,
		user_name     TEXT NOT NULL,
		user_avatar   TEXT NOT NULL DEFAULT '',
		text_content  TEXT NOT NULL DEFAULT '',
		image_content TEXT NOT NULL DEFAULT '',
		likes         INTEGER NOT NULL DEFAULT 0,
		date          DATE NOT NULL DEFAULT CURRENT_DATE
	)`,
	`CREATE INDEX IF NOT EXISTS posts_user_name_idx ON posts (user_name)`,
	`CREATE TABLE IF NOT EXISTS post_likes (
		post_id  BIGINT NOT NULL REFERENCES posts (id),
		user_id  BIGINT NOT NULL,
		liked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (post_id, user_id)
	)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
