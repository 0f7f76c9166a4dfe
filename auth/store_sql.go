package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notesapi/db"
)

// SQLBackend keeps sessions in sessions_table.
type SQLBackend struct {
	db  db.DBTX
	now func() time.Time
}

func NewSQLBackend(conn db.DBTX) *SQLBackend {
	return &SQLBackend{db: conn, now: time.Now}
}

func (b *SQLBackend) Load(ctx context.Context, id string) (string, bool, error) {
	var data string
	err := b.db.QueryRowContext(ctx,
		`SELECT data FROM sessions_table WHERE session_id = $1 AND expires_at > $2`,
		id, b.now().Unix()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("db error: %w", err)
	}
	return data, true, nil
}

func (b *SQLBackend) Save(ctx context.Context, id, data string, expiresAt time.Time) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO sessions_table (session_id, data, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		id, data, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (b *SQLBackend) Erase(ctx context.Context, id string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM sessions_table WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry has passed.
func (b *SQLBackend) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM sessions_table WHERE expires_at <= $1`, b.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

// RunCleanup calls DeleteExpired every interval until ctx is done.
func (b *SQLBackend) RunCleanup(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("session cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}
