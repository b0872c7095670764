package db

import "context"

// Schema creates the tables used by the service. Statements are idempotent.
var Schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token      TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS adventures (
		id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		owner_id    TEXT NOT NULL REFERENCES users(id),
		title       TEXT NOT NULL CHECK (btrim(title) <> ''),
		description TEXT NOT NULL DEFAULT '',
		latitude    DOUBLE PRECISION NOT NULL CHECK (latitude BETWEEN -90 AND 90),
		longitude   DOUBLE PRECISION NOT NULL CHECK (longitude BETWEEN -180 AND 180),
		cover_image TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS adventure_photos (
		id           TEXT PRIMARY KEY,
		adventure_id TEXT NOT NULL REFERENCES adventures(id) ON DELETE CASCADE,
		image_url    TEXT NOT NULL CHECK (image_url <> ''),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS adventure_photos_adventure_idx ON adventure_photos (adventure_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS media_objects (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		url        TEXT NOT NULL,
		kind       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies Schema in order and stops at the first failure.
func Migrate(ctx context.Context, q Querier) error {
	for _, stmt := range Schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
