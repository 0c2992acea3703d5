package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/healthtracker/backend/internal/models"
)

// loginAuditRepository is the append-only login_audit table.
// It has no update or delete methods.
type loginAuditRepository struct {
	db *sql.DB
}

// NewLoginAuditRepository creates a new login audit repository
func NewLoginAuditRepository(db *sql.DB) *loginAuditRepository {
	return &loginAuditRepository{
		db: db,
	}
}

// Create appends one login attempt
func (r *loginAuditRepository) Create(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_audit (identifier, user_id, success, ip, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var userID sql.NullInt64
	if attempt.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*attempt.UserID), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		attempt.Identifier,
		userID,
		attempt.Success,
		attempt.IP,
		attempt.UserAgent,
		attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	attempt.ID = int(id)

	return nil
}

// Count returns the number of recorded attempts
func (r *loginAuditRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM login_audit`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count login attempts: %w", err)
	}
	return count, nil
}

// ListRecent returns attempts newest first
func (r *loginAuditRepository) ListRecent(ctx context.Context, limit, offset int) ([]models.LoginAttempt, error) {
	query := `
		SELECT id, identifier, user_id, success, ip, user_agent, created_at
		FROM login_audit
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.LoginAttempt
	for rows.Next() {
		var (
			attempt models.LoginAttempt
			userID  sql.NullInt64
		)
		if err := rows.Scan(
			&attempt.ID,
			&attempt.Identifier,
			&userID,
			&attempt.Success,
			&attempt.IP,
			&attempt.UserAgent,
			&attempt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		if userID.Valid {
			id := int(userID.Int64)
			attempt.UserID = &id
		}
		attempts = append(attempts, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return attempts, nil
}
