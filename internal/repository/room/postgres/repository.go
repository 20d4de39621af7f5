package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id            TEXT PRIMARY KEY,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	video_id      TEXT NOT NULL DEFAULT '',
	video_url     TEXT NOT NULL DEFAULT '',
	password      TEXT NOT NULL DEFAULT '',
	host_control  BOOLEAN NOT NULL DEFAULT FALSE,
	host_username TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS room_states (
	room_id          TEXT PRIMARY KEY REFERENCES rooms (id) ON DELETE CASCADE,
	current_position DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_playing       BOOLEAN NOT NULL DEFAULT FALSE,
	last_updated     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id         TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL REFERENCES rooms (id) ON DELETE CASCADE,
	username   TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);

CREATE INDEX IF NOT EXISTS chat_messages_room_created_idx ON chat_messages (room_id, created_at DESC, id DESC);
`

type repo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepo(pool *pgxpool.Pool, logger *slog.Logger) *repo {
	return &repo{
		pool:   pool,
		logger: logger,
	}
}

// Migrate creates the tables used by the store when they do not exist yet.
func (r repo) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}

	return false
}
