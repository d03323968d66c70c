package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DrawLockRepository is a lease table shared by every server instance.
// An expired lease is taken over by the next caller, so a crashed holder
// blocks a round for at most the lease TTL.
type DrawLockRepository interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

type postgresDrawLockRepository struct {
	db *sql.DB
}

func NewPostgresDrawLockRepository(db *sql.DB) DrawLockRepository {
	return &postgresDrawLockRepository{db: db}
}

func (r *postgresDrawLockRepository) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := newID()
	query := `
		INSERT INTO draw_locks (lock_key, token, expires_at)
		VALUES ($1, $2, now() + $3 * interval '1 millisecond')
		ON CONFLICT (lock_key) DO UPDATE
			SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
			WHERE draw_locks.expires_at < now()
		RETURNING token`

	var acquired string
	err := r.db.QueryRowContext(ctx, query, key, token, ttl.Milliseconds()).Scan(&acquired)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to acquire draw lock %s: %w", key, err)
	}
	return acquired, true, nil
}

// Release only deletes the lease still owned by token; a lease that expired
// and was taken over is left alone.
func (r *postgresDrawLockRepository) Release(ctx context.Context, key, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM draw_locks WHERE lock_key = $1 AND token = $2`, key, token)
	if err != nil {
		return fmt.Errorf("failed to release draw lock %s: %w", key, err)
	}
	return nil
}
