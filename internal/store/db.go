package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Migrate applies the schema. Statements are idempotent so startup can run
// them unconditionally.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id    TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			token      TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked    BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id                TEXT PRIMARY KEY,
			owner_id          TEXT NOT NULL,
			admin_id          TEXT,
			name              TEXT NOT NULL,
			time_start        TEXT NOT NULL,
			time_end          TEXT NOT NULL,
			is_paused         BOOLEAN NOT NULL DEFAULT FALSE,
			allow_late_upload BOOLEAN NOT NULL DEFAULT FALSE,
			invite_code       TEXT,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_records (
			id               TEXT PRIMARY KEY,
			room_id          TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			day              DATE NOT NULL,
			status           TEXT NOT NULL,
			proof_ref        TEXT NOT NULL DEFAULT '',
			note             TEXT NOT NULL DEFAULT '',
			submitted_at     TIMESTAMPTZ,
			reviewed_at      TIMESTAMPTZ,
			reviewer_id      TEXT,
			rejection_reason TEXT,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (room_id, day)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_status ON attendance_records (status)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_owner ON rooms (owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_admin ON rooms (admin_id)`,
	}
	for _, stmt := range stmts {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
