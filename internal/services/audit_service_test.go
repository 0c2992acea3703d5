package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/healthtracker/backend/internal/models"
	"github.com/healthtracker/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockLoginAuditRepository is a mock implementation of LoginAuditRepository
type mockLoginAuditRepository struct {
	attempts   []models.LoginAttempt
	createErr  error
	countErr   error
	listErr    error
	lastLimit  int
	lastOffset int
}

func (m *mockLoginAuditRepository) Create(ctx context.Context, attempt *models.LoginAttempt) error {
	if m.createErr != nil {
		return m.createErr
	}
	attempt.ID = len(m.attempts) + 1
	m.attempts = append(m.attempts, *attempt)
	return nil
}

func (m *mockLoginAuditRepository) Count(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.attempts), nil
}

func (m *mockLoginAuditRepository) ListRecent(ctx context.Context, limit, offset int) ([]models.LoginAttempt, error) {
	m.lastLimit, m.lastOffset = limit, offset
	if m.listErr != nil {
		return nil, m.listErr
	}
	if offset >= len(m.attempts) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.attempts) {
		end = len(m.attempts)
	}
	return m.attempts[offset:end], nil
}

func TestAuditService_Record(t *testing.T) {
	tests := []struct {
		name          string
		repo          *mockLoginAuditRepository
		expectedError bool
	}{
		{
			name: "success",
			repo: &mockLoginAuditRepository{},
		},
		{
			name:          "write failure propagates",
			repo:          &mockLoginAuditRepository{createErr: errors.New("disk full")},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuditService(tt.repo, zap.NewNop())
			attempt := &models.LoginAttempt{Identifier: "ann", Success: true, IP: "10.0.0.1"}

			err := svc.Record(context.Background(), attempt)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Empty(t, tt.repo.attempts)
				return
			}
			require.NoError(t, err)
			require.Len(t, tt.repo.attempts, 1)
			assert.False(t, tt.repo.attempts[0].CreatedAt.IsZero())
			assert.Equal(t, 1, attempt.ID)
		})
	}
}

func TestAuditService_Record_TruncatesToColumnWidths(t *testing.T) {
	tests := []struct {
		name               string
		identifier         string
		userAgent          string
		expectedIdentifier string
		expectedUserAgent  string
	}{
		{
			name:               "short values are kept",
			identifier:         "ann",
			userAgent:          "curl/8.0",
			expectedIdentifier: "ann",
			expectedUserAgent:  "curl/8.0",
		},
		{
			name:               "oversized values are cut",
			identifier:         strings.Repeat("a", 300),
			userAgent:          strings.Repeat("u", 600),
			expectedIdentifier: strings.Repeat("a", 255),
			expectedUserAgent:  strings.Repeat("u", 512),
		},
		{
			name:               "multibyte characters are not split",
			identifier:         strings.Repeat("é", 300),
			userAgent:          strings.Repeat("ü", 600),
			expectedIdentifier: strings.Repeat("é", 255),
			expectedUserAgent:  strings.Repeat("ü", 512),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockLoginAuditRepository{}
			svc := NewAuditService(repo, zap.NewNop())

			err := svc.Record(context.Background(), &models.LoginAttempt{
				Identifier: tt.identifier,
				IP:         "10.0.0.1",
				UserAgent:  tt.userAgent,
			})

			require.NoError(t, err)
			require.Len(t, repo.attempts, 1)
			got := repo.attempts[0]
			assert.Equal(t, tt.expectedIdentifier, got.Identifier)
			assert.Equal(t, tt.expectedUserAgent, got.UserAgent)
			assert.True(t, utf8.ValidString(got.Identifier))
			assert.True(t, utf8.ValidString(got.UserAgent))
		})
	}
}

func TestAuditService_Record_OversizedAttemptIsInserted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO login_audit`).
		WithArgs(strings.Repeat("a", 255), nil, false, "10.0.0.1", strings.Repeat("u", 512), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := NewAuditService(repositories.NewLoginAuditRepository(db), zap.NewNop())
	err = svc.Record(context.Background(), &models.LoginAttempt{
		Identifier: strings.Repeat("a", 300),
		IP:         "10.0.0.1",
		UserAgent:  strings.Repeat("u", 600),
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_ListRecent(t *testing.T) {
	repo := &mockLoginAuditRepository{}
	for i := 0; i < 120; i++ {
		repo.attempts = append(repo.attempts, models.LoginAttempt{ID: i + 1})
	}
	svc := NewAuditService(repo, zap.NewNop())

	attempts, page, err := svc.ListRecent(context.Background(), 3)

	require.NoError(t, err)
	assert.Len(t, attempts, 20)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.HasNext())
	assert.Equal(t, 50, repo.lastLimit)
	assert.Equal(t, 100, repo.lastOffset)

	repo.countErr = errors.New("database error")
	_, _, err = svc.ListRecent(context.Background(), 1)
	assert.Error(t, err)
}
