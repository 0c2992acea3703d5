package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/healthtracker/backend/internal/models"
)

// sessionRepository stores sessions keyed by the hash of their token
type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *sessionRepository {
	return &sessionRepository{
		db: db,
	}
}

// Create inserts a new session
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (token_hash, user_id, username, role, flash_kind, flash_message, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var userID sql.NullInt64
	var username, role sql.NullString
	if session.User != nil {
		userID = sql.NullInt64{Int64: int64(session.User.ID), Valid: true}
		username = sql.NullString{String: session.User.Username, Valid: true}
		role = sql.NullString{String: string(session.User.Role), Valid: true}
	}
	flashKind, flashMessage := flashColumns(session.Flash)

	if _, err := r.db.ExecContext(ctx, query,
		session.TokenHash,
		userID,
		username,
		role,
		flashKind,
		flashMessage,
		session.CreatedAt,
		session.ExpiresAt,
	); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves a session that has not expired at "now"
func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error) {
	query := `
		SELECT token_hash, user_id, username, role, flash_kind, flash_message, created_at, expires_at
		FROM sessions
		WHERE token_hash = ? AND expires_at > ?
		LIMIT 1
	`

	var (
		session                 models.Session
		userID                  sql.NullInt64
		username, role          sql.NullString
		flashKind, flashMessage sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, tokenHash, now).Scan(
		&session.TokenHash,
		&userID,
		&username,
		&role,
		&flashKind,
		&flashMessage,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if userID.Valid {
		session.User = &models.UserSnapshot{
			ID:       int(userID.Int64),
			Username: username.String,
			Role:     models.Role(role.String),
		}
	}
	if flashKind.Valid {
		session.Flash = &models.Flash{Kind: models.FlashKind(flashKind.String), Message: flashMessage.String}
	}

	return &session, nil
}

// SetFlash overwrites the flash slot of a session
func (r *sessionRepository) SetFlash(ctx context.Context, tokenHash string, flash models.Flash) error {
	query := `UPDATE sessions SET flash_kind = ?, flash_message = ? WHERE token_hash = ?`

	kind, message := flashColumns(&flash)
	result, err := r.db.ExecContext(ctx, query, kind, message, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to set flash: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session: %w", models.ErrNotFound)
	}

	return nil
}

// TakeFlash reads and clears the flash slot in one transaction.
// It returns nil when the slot is empty or the session is gone.
func (r *sessionRepository) TakeFlash(ctx context.Context, tokenHash string) (_ *models.Flash, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var kind, message sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT flash_kind, flash_message FROM sessions WHERE token_hash = ? FOR UPDATE`,
		tokenHash,
	).Scan(&kind, &message)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		tx.Rollback()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read flash: %w", err)
	}

	if !kind.Valid {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, nil
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE sessions SET flash_kind = NULL, flash_message = NULL WHERE token_hash = ?`,
		tokenHash,
	); err != nil {
		return nil, fmt.Errorf("failed to clear flash: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.Flash{Kind: models.FlashKind(kind.String), Message: message.String}, nil
}

// DeleteByTokenHash deletes a session. Deleting a missing session is not an error.
func (r *sessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM sessions WHERE token_hash = ?`

	if _, err := r.db.ExecContext(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteByUserID deletes every session of a user
func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID int) (int, error) {
	query := `DELETE FROM sessions WHERE user_id = ?`

	return r.deleteCounting(ctx, query, userID)
}

// DeleteExpired deletes all sessions whose expiry is at or before the given time
func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	query := `DELETE FROM sessions WHERE expires_at <= ?`

	return r.deleteCounting(ctx, query, before)
}

func (r *sessionRepository) deleteCounting(ctx context.Context, query string, args ...any) (int, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

func flashColumns(flash *models.Flash) (sql.NullString, sql.NullString) {
	if flash == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: string(flash.Kind), Valid: true},
		sql.NullString{String: flash.Message, Valid: true}
}
