package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository is the Postgres-backed AttemptStore.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetAttempt(ctx context.Context, clientID string) (LoginAttempt, error) {
	attempt := LoginAttempt{ClientID: clientID}

	var lockedUntil sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT attempt_count, locked_until
		FROM auth_login_attempts
		WHERE client_id = $1
	`, clientID).Scan(&attempt.AttemptCount, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attempt, nil
		}
		return LoginAttempt{}, fmt.Errorf("query login attempt: %w", err)
	}
	if lockedUntil.Valid {
		value := lockedUntil.Time.UTC()
		attempt.LockedUntil = &value
	}

	return attempt, nil
}

// IncrementAttempt bumps the client's failure count in a single upsert so
// concurrent failures always observe distinct post-increment counts.
func (r *Repository) IncrementAttempt(ctx context.Context, clientID string, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO auth_login_attempts (client_id, attempt_count, last_attempt)
		VALUES ($1, 1, $2)
		ON CONFLICT (client_id) DO UPDATE SET
			attempt_count = auth_login_attempts.attempt_count + 1,
			last_attempt = EXCLUDED.last_attempt
		RETURNING attempt_count
	`, clientID, now.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("upsert login attempt: %w", err)
	}

	return count, nil
}

func (r *Repository) LockAttempt(ctx context.Context, clientID string, until time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_login_attempts
		SET locked_until = $2
		WHERE client_id = $1
	`, clientID, until.UTC())
	if err != nil {
		return fmt.Errorf("lock login attempt: %w", err)
	}

	return nil
}

func (r *Repository) ResetAttempt(ctx context.Context, clientID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_login_attempts
		SET attempt_count = 0, locked_until = NULL
		WHERE client_id = $1
	`, clientID)
	if err != nil {
		return fmt.Errorf("reset login attempt: %w", err)
	}

	return nil
}

func (r *Repository) ClearAttempt(ctx context.Context, clientID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM auth_login_attempts
		WHERE client_id = $1
	`, clientID)
	if err != nil {
		return fmt.Errorf("clear login attempt: %w", err)
	}

	return nil
}

// CleanupStaleAttempts deletes attempt rows that carry no active lock and
// have not been touched within the retention window. Lazy expiry already
// treats such rows as clear, so this only reclaims storage.
func (r *Repository) CleanupStaleAttempts(ctx context.Context, retention time.Duration, batchSize int) (int64, error) {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	cutoff := time.Now().UTC().Add(-retention)

	res, err := r.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT client_id
			FROM auth_login_attempts
			WHERE last_attempt < $1
			  AND (locked_until IS NULL OR locked_until < NOW())
			ORDER BY last_attempt ASC
			LIMIT $2
		)
		DELETE FROM auth_login_attempts t
		USING stale
		WHERE t.client_id = stale.client_id
	`, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete stale login attempts: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale login attempts rows affected: %w", err)
	}

	return affected, nil
}
