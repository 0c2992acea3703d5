package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/healthtracker/backend/internal/metrics"
	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

// auditPageSize is the number of login attempts per admin page
const auditPageSize = 50

// Column widths of the login_audit table, in characters
const (
	maxAuditIdentifierLength = 255
	maxAuditIPLength         = 64
	maxAuditUserAgentLength  = 512
)

// LoginAuditRepository is the interface that wraps methods for the append-only login_audit table
type LoginAuditRepository interface {
	// Method Create appends one login attempt and sets its ID.
	//
	// If some error occurs during insert, the error will be returned.
	Create(ctx context.Context, attempt *models.LoginAttempt) error
	// Method Count returns the number of recorded attempts.
	Count(ctx context.Context) (int, error)
	// Method ListRecent returns attempts newest first.
	//
	// "limit" and "offset" parameters select the page.
	ListRecent(ctx context.Context, limit, offset int) ([]models.LoginAttempt, error)
}

type auditService struct {
	repo   LoginAuditRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewAuditService creates a new login audit service
func NewAuditService(repo LoginAuditRepository, logger *zap.Logger) *auditService {
	return &auditService{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// Record appends one login attempt. A failed write is returned to the caller, never swallowed.
// Caller supplied text is cut to the column widths so an oversized form field or header
// cannot make the insert fail.
func (s *auditService) Record(ctx context.Context, attempt *models.LoginAttempt) error {
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = s.now()
	}
	attempt.Identifier = truncateRunes(attempt.Identifier, maxAuditIdentifierLength)
	attempt.IP = truncateRunes(attempt.IP, maxAuditIPLength)
	attempt.UserAgent = truncateRunes(attempt.UserAgent, maxAuditUserAgentLength)

	if err := s.repo.Create(ctx, attempt); err != nil {
		s.logger.Error("failed to record login attempt",
			zap.Error(err),
			zap.String("identifier", attempt.Identifier),
			zap.Bool("success", attempt.Success),
		)
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	metrics.RecordLoginAttempt(attempt.Success)
	s.logger.Info("login attempt",
		zap.String("identifier", attempt.Identifier),
		zap.Bool("success", attempt.Success),
		zap.String("ip", attempt.IP),
	)

	return nil
}

// ListRecent returns one page of login attempts, newest first
func (s *auditService) ListRecent(ctx context.Context, page int) ([]models.LoginAttempt, models.Page, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("failed to count login attempts: %w", err)
	}

	p := models.NewPage(page, auditPageSize, total)
	attempts, err := s.repo.ListRecent(ctx, p.Size, p.Offset())
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("failed to list login attempts: %w", err)
	}

	return attempts, p, nil
}

// truncateRunes cuts s to at most limit characters without splitting a UTF-8 sequence
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
