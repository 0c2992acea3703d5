package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

const userColumns = `id, username, email, password_hash, role, is_active, created_at, last_login_at`

// userRepository implements the credential store on the users table
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var lastLogin sql.NullTime
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&lastLogin,
	); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLoginAt = &t
	}
	return user, nil
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, is_active)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.Role, user.IsActive)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("failed to create user: %w", models.ErrConflict)
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get user by id", zap.Error(err), zap.Int("userID", userID))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByUsernameOrEmail retrieves a user whose username or email equals the identifier
func (r *userRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = ? OR email = ?
		LIMIT 1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, identifier, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", models.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get user by username or email", zap.Error(err), zap.String("identifier", identifier))
		return nil, fmt.Errorf("failed to get user by username or email: %w", err)
	}

	return user, nil
}

// ExistsByEmail checks if a user exists with the given email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		r.logger.Error("failed to check email existence", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// ExistsByUsername checks if a user exists with the given username
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		r.logger.Error("failed to check username existence", zap.Error(err), zap.String("username", username))
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// UpdateLastLogin stamps the last successful login time
func (r *userRepository) UpdateLastLogin(ctx context.Context, userID int, at time.Time) error {
	query := `UPDATE users SET last_login_at = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, at, userID); err != nil {
		r.logger.Error("failed to update last login", zap.Error(err), zap.Int("userID", userID))
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// UpdateRole sets the role of a user
func (r *userRepository) UpdateRole(ctx context.Context, userID int, role models.Role) error {
	query := `UPDATE users SET role = ? WHERE id = ?`

	return r.execAffectingUser(ctx, "update role", query, role, userID)
}

// SetActive sets the active flag of a user
func (r *userRepository) SetActive(ctx context.Context, userID int, active bool) error {
	query := `UPDATE users SET is_active = ? WHERE id = ?`

	return r.execAffectingUser(ctx, "set active", query, active, userID)
}

// Delete removes a user. Workouts, metrics and sessions go with it by cascade.
func (r *userRepository) Delete(ctx context.Context, userID int) error {
	query := `DELETE FROM users WHERE id = ?`

	return r.execAffectingUser(ctx, "delete user", query, userID)
}

func (r *userRepository) execAffectingUser(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to "+op, zap.Error(err))
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("failed to %s: %w", op, models.ErrNotFound)
	}

	return nil
}

// List returns all users ordered by creation time
func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query users", zap.Error(err))
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.logger.Error("failed to scan user", zap.Error(err))
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}
