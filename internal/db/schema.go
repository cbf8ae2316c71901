package db

import (
	"context"
	"fmt"
)

// Schema creates the tables used by the API. Uniqueness of usernames, emails
// and follow edges lives in the database so concurrent inserts cannot race.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id         UUID PRIMARY KEY,
	username        TEXT NOT NULL UNIQUE,
	email           TEXT NOT NULL UNIQUE,
	password        TEXT NOT NULL,
	profile_picture TEXT
);

CREATE TABLE IF NOT EXISTS posts (
	post_id    UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users(user_id),
	image_path TEXT NOT NULL,
	caption    TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS posts_user_created_idx ON posts (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS follows (
	follower_id  UUID NOT NULL REFERENCES users(user_id),
	following_id UUID NOT NULL REFERENCES users(user_id),
	PRIMARY KEY (follower_id, following_id),
	CONSTRAINT follows_no_self CHECK (follower_id <> following_id)
);

CREATE INDEX IF NOT EXISTS follows_following_idx ON follows (following_id);
`

func EnsureSchema(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
