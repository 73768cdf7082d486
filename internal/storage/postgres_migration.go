package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationStatements is the idempotent schema for the Postgres backend.
// watch_history deliberately has no foreign key on video_id: entries are
// historical snapshots that outlive video deletion.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	avatar_url TEXT NOT NULL,
	cover_image_url TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	refresh_token_hash TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS videos (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users (id),
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	file_url TEXT NOT NULL,
	thumbnail_url TEXT NOT NULL,
	duration DOUBLE PRECISION NOT NULL DEFAULT 0,
	views BIGINT NOT NULL DEFAULT 0,
	is_published BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS videos_owner_idx ON videos (owner_id)`,
	`CREATE INDEX IF NOT EXISTS videos_created_at_idx ON videos (created_at)`,
	`CREATE TABLE IF NOT EXISTS watch_history (
	user_id TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	video_id TEXT NOT NULL,
	position BIGINT GENERATED ALWAYS AS IDENTITY,
	title TEXT NOT NULL,
	thumbnail_url TEXT NOT NULL,
	duration DOUBLE PRECISION NOT NULL DEFAULT 0,
	watched_at TIMESTAMPTZ NOT NULL,
	progress DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, video_id)
)`,
	`CREATE TABLE IF NOT EXISTS channel_subscriptions (
	subscriber_id TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	channel_id TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	subscribed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (channel_id, subscriber_id)
)`,
	`CREATE INDEX IF NOT EXISTS channel_subscriptions_subscriber_idx ON channel_subscriptions (subscriber_id)`,
}

// MigratePostgres applies the schema to the database behind dsn. Every
// statement is idempotent, so running it on each startup is safe.
func MigratePostgres(ctx context.Context, dsn string) error {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("open postgres pool: %w", err)
	}
	defer pool.Close()

	for _, stmt := range migrationStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
