package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/healthtracker/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var userRowColumns = []string{"id", "username", "email", "password_hash", "role", "is_active", "created_at", "last_login_at"}

// setupUserTestRepository creates a user repository with a mock database
func setupUserTestRepository(t *testing.T) (*userRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewUserRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestNewUserRepository(t *testing.T) {
	logger := zap.NewNop()
	db := &sql.DB{}

	repo := NewUserRepository(db, logger)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
	assert.Equal(t, logger, repo.logger)
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		expectedID    int
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("testuser", "test@example.com", "hashedpassword", "user", true).
					WillReturnResult(sqlmock.NewResult(7, 1))
			},
			expectedID: 7,
		},
		{
			name: "duplicate entry",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("testuser", "test@example.com", "hashedpassword", "user", true).
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'testuser' for key 'uq_users_username'"})
			},
			expectedError: models.ErrConflict,
		},
		{
			name: "database error on insert",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("testuser", "test@example.com", "hashedpassword", "user", true).
					WillReturnError(errors.New("database error"))
			},
			expectedError: errors.New("database error"),
		},
		{
			name: "error getting last insert id",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("testuser", "test@example.com", "hashedpassword", "user", true).
					WillReturnResult(sqlmock.NewErrorResult(errors.New("last insert id error")))
			},
			expectedError: errors.New("last insert id error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			user := &models.User{
				Username:     "testuser",
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleUser,
				IsActive:     true,
			}
			err := repo.Create(context.Background(), user)

			if tt.expectedError != nil {
				require.Error(t, err)
				if errors.Is(tt.expectedError, models.ErrConflict) {
					assert.ErrorIs(t, err, models.ErrConflict)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedID, user.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByUsernameOrEmail(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name           string
		setupMock      func(sqlmock.Sqlmock)
		expectNotFound bool
		expectedError  bool
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(userRowColumns).
					AddRow(1, "ann", "ann@example.com", "hash", "admin", true, now, now)
				mock.ExpectQuery(regexp.QuoteMeta(`WHERE username = ? OR email = ?`)).
					WithArgs("ann", "ann").
					WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`WHERE username = ? OR email = ?`)).
					WithArgs("ann", "ann").
					WillReturnError(sql.ErrNoRows)
			},
			expectNotFound: true,
			expectedError:  true,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`WHERE username = ? OR email = ?`)).
					WithArgs("ann", "ann").
					WillReturnError(errors.New("connection refused"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			user, err := repo.GetByUsernameOrEmail(context.Background(), "ann")

			if tt.expectedError {
				require.Error(t, err)
				assert.Nil(t, user)
				assert.Equal(t, tt.expectNotFound, errors.Is(err, models.ErrNotFound))
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, user.ID)
				assert.Equal(t, models.RoleAdmin, user.Role)
				assert.True(t, user.IsActive)
				require.NotNil(t, user.LastLoginAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByID_NullLastLogin(t *testing.T) {
	repo, mock, cleanup := setupUserTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows(userRowColumns).
		AddRow(3, "bob", "bob@example.com", "hash", "user", false, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).
		WithArgs(3).
		WillReturnRows(rows)

	user, err := repo.GetByID(context.Background(), 3)

	require.NoError(t, err)
	assert.Nil(t, user.LastLoginAt)
	assert.False(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Exists(t *testing.T) {
	repo, mock, cleanup := setupUserTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`)).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`)).
		WithArgs("ann").
		WillReturnError(errors.New("database error"))

	exists, err := repo.ExistsByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsername(context.Background(), "ann")
	require.Error(t, err)
	assert.False(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Mutations(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(sqlmock.Sqlmock)
		call           func(*userRepository) error
		expectNotFound bool
		expectedError  bool
	}{
		{
			name: "update role",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET role = ? WHERE id = ?`)).
					WithArgs("admin", 5).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			call: func(r *userRepository) error {
				return r.UpdateRole(context.Background(), 5, models.RoleAdmin)
			},
		},
		{
			name: "update role of missing user",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET role = ? WHERE id = ?`)).
					WithArgs("admin", 99).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			call: func(r *userRepository) error {
				return r.UpdateRole(context.Background(), 99, models.RoleAdmin)
			},
			expectNotFound: true,
			expectedError:  true,
		},
		{
			name: "set active",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET is_active = ? WHERE id = ?`)).
					WithArgs(false, 5).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			call: func(r *userRepository) error {
				return r.SetActive(context.Background(), 5, false)
			},
		},
		{
			name: "delete",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = ?`)).
					WithArgs(5).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			call: func(r *userRepository) error {
				return r.Delete(context.Background(), 5)
			},
		},
		{
			name: "delete database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = ?`)).
					WithArgs(5).
					WillReturnError(errors.New("lock wait timeout"))
			},
			call: func(r *userRepository) error {
				return r.Delete(context.Background(), 5)
			},
			expectedError: true,
		},
		{
			name: "update last login",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET last_login_at = ? WHERE id = ?`)).
					WithArgs(sqlmock.AnyArg(), 5).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			call: func(r *userRepository) error {
				return r.UpdateLastLogin(context.Background(), 5, time.Now())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := tt.call(repo)

			if tt.expectedError {
				require.Error(t, err)
				assert.Equal(t, tt.expectNotFound, errors.Is(err, models.ErrNotFound))
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_List(t *testing.T) {
	repo, mock, cleanup := setupUserTestRepository(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow(1, "ann", "ann@example.com", "h1", "admin", true, now, nil).
		AddRow(2, "bob", "bob@example.com", "h2", "user", true, now, now)
	mock.ExpectQuery(`FROM users ORDER BY created_at, id`).WillReturnRows(rows)

	users, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, models.RoleUser, users[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
