package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order. Every statement is idempotent.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		email text NOT NULL UNIQUE,
		name text NOT NULL DEFAULT '',
		last_name text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		code text NOT NULL UNIQUE
	)`,
	`INSERT INTO roles (code) VALUES ('organizer') ON CONFLICT (code) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role_id uuid NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, role_id)
	)`,
	`CREATE TABLE IF NOT EXISTS login_codes (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		email text NOT NULL,
		code_hash text NOT NULL,
		expires_at timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS login_codes_email_idx ON login_codes (email)`,
	`CREATE TABLE IF NOT EXISTS festivals (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		name text NOT NULL,
		slug text NOT NULL UNIQUE,
		owner_id uuid NOT NULL REFERENCES users(id),
		description text,
		start_date date,
		end_date date,
		timezone text NOT NULL DEFAULT 'UTC',
		booking_enabled boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id uuid PRIMARY KEY,
		festival_id uuid NOT NULL REFERENCES festivals(id) ON DELETE CASCADE,
		title text NOT NULL,
		day text NOT NULL,
		start_time text NOT NULL,
		end_time text NOT NULL,
		display_order double precision,
		description text NOT NULL DEFAULT '',
		location text NOT NULL DEFAULT '',
		capacity integer CHECK (capacity IS NULL OR capacity >= 0),
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_festival_idx ON sessions (festival_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS teachers (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		festival_id uuid NOT NULL REFERENCES festivals(id) ON DELETE CASCADE,
		name text NOT NULL,
		bio text NOT NULL DEFAULT '',
		photo_url text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL DEFAULT NOW(),
		updated_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS teachers_festival_name_idx ON teachers (festival_id, lower(name))`,
	`CREATE TABLE IF NOT EXISTS session_teachers (
		session_id uuid NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		teacher_id uuid NOT NULL REFERENCES teachers(id) ON DELETE CASCADE,
		PRIMARY KEY (session_id, teacher_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id uuid PRIMARY KEY,
		session_id uuid NOT NULL REFERENCES sessions(id),
		festival_id uuid NOT NULL REFERENCES festivals(id) ON DELETE CASCADE,
		attendee_names text[] NOT NULL CHECK (cardinality(attendee_names) > 0),
		email text NOT NULL,
		cancel_token_hash text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_session_idx ON bookings (session_id, created_at)`,
}

// Migrate creates the schema inside one transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}
