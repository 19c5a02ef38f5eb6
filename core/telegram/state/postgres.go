package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/fishbot/core/logger"
)

const (
	selectSessionSQL = `SELECT payload FROM bot_sessions WHERE user_id = $1`
	upsertSessionSQL = `INSERT INTO bot_sessions (user_id, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
	deleteSessionSQL = `DELETE FROM bot_sessions WHERE user_id = $1`
	scanSessionsSQL  = `SELECT user_id, payload FROM bot_sessions ORDER BY user_id`
)

// PostgresStore persists sessions in the bot_sessions table.
// The schema is created by the embedded database migrations.
type PostgresStore[T any] struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool. Close does not close the pool.
func NewPostgresStore[T any](db *sqlx.DB) *PostgresStore[T] {
	return &PostgresStore[T]{db: db}
}

func (s *PostgresStore[T]) Load(ctx context.Context, userID int64) (T, bool, error) {
	var (
		out T
		raw []byte
	)
	if err := s.db.GetContext(ctx, &raw, selectSessionSQL, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return out, false, nil
		}
		return out, false, fmt.Errorf("state: load session %d: %w", userID, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("state: decode session %d: %w", userID, err)
	}
	return out, true, nil
}

func (s *PostgresStore[T]) Save(ctx context.Context, userID int64, v T) error {
	enc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode session %d: %w", userID, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertSessionSQL, userID, enc); err != nil {
		return fmt.Errorf("state: save session %d: %w", userID, err)
	}
	return nil
}

func (s *PostgresStore[T]) Delete(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, deleteSessionSQL, userID); err != nil {
		return fmt.Errorf("state: delete session %d: %w", userID, err)
	}
	return nil
}

type sessionRow struct {
	UserID  int64  `db:"user_id"`
	Payload []byte `db:"payload"`
}

func (s *PostgresStore[T]) Each(ctx context.Context, fn func(userID int64, v T) bool) error {
	rows, err := s.db.QueryxContext(ctx, scanSessionsSQL)
	if err != nil {
		return fmt.Errorf("state: scan sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row sessionRow
		if err := rows.StructScan(&row); err != nil {
			return fmt.Errorf("state: scan session row: %w", err)
		}
		var v T
		if err := json.Unmarshal(row.Payload, &v); err != nil {
			logger.Warn(ctx, "sessions", "decode.skip",
				slog.Int64("user_id", row.UserID),
				slog.String("backend", BackendPostgres),
				slog.String("err", err.Error()),
			)
			continue
		}
		if !fn(row.UserID, v) {
			return nil
		}
	}
	return rows.Err()
}

func (s *PostgresStore[T]) Close() error {
	return nil
}
