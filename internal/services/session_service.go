package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

// tokenBytes is the entropy of a session token
const tokenBytes = 32

// SessionRepository is the interface that wraps methods for Sessions table data access
type SessionRepository interface {
	// Method Create inserts a new session.
	//
	// "session" parameter must carry the token hash, the user snapshot (nil for a guest) and both timestamps.
	//
	// If some error occurs during session creation, the error will be returned.
	Create(ctx context.Context, session *models.Session) error
	// Method GetByTokenHash retrieves a session by the hash of its token.
	//
	// "now" parameter is compared with the session expiry; an expired session is not returned.
	//
	// If no such live session exists, models.ErrNotFound will be returned together with "nil" value.
	GetByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error)
	// Method SetFlash overwrites the flash slot of a session.
	//
	// If the session does not exist, models.ErrNotFound will be returned.
	SetFlash(ctx context.Context, tokenHash string, flash models.Flash) error
	// Method TakeFlash reads and clears the flash slot atomically.
	//
	// An empty slot or a missing session returns "nil" flash and "nil" error.
	TakeFlash(ctx context.Context, tokenHash string) (*models.Flash, error)
	// Method DeleteByTokenHash deletes a session. Deleting a missing session is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	// Method DeleteByUserID deletes all sessions of a user and returns how many were deleted.
	DeleteByUserID(ctx context.Context, userID int) (int, error)
	// Method DeleteExpired deletes sessions expired at "before" and returns how many were deleted.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// sessionService implements the server-side session manager
type sessionService struct {
	repo   SessionRepository
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewSessionService creates a new session service.
// Sessions expire "ttl" after creation regardless of activity.
func NewSessionService(repo SessionRepository, ttl time.Duration, logger *zap.Logger) *sessionService {
	return &sessionService{
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// generateToken returns an opaque url-safe token
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashToken returns the form of the token kept in the store
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Create starts a session for the user snapshot, or a guest session when user is nil.
// Other sessions of the same user are left alone.
func (s *sessionService) Create(ctx context.Context, user *models.UserSnapshot) (*models.Session, error) {
	return s.create(ctx, user, nil)
}

func (s *sessionService) create(ctx context.Context, user *models.UserSnapshot, flash *models.Flash) (*models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.Session{
		Token:     token,
		TokenHash: hashToken(token),
		User:      user,
		Flash:     flash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		s.logger.Error("failed to create session", zap.Error(err))
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Resolve returns the live session for a token.
// A missing, unknown or expired token resolves to "nil" without error; a store failure is an error.
func (s *sessionService) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.repo.GetByTokenHash(ctx, hashToken(token), s.now())
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to resolve session", zap.Error(err))
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	session.Token = token

	return session, nil
}

// Destroy removes the session of a token; destroying an unknown session succeeds
func (s *sessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.DeleteByTokenHash(ctx, hashToken(token)); err != nil {
		s.logger.Error("failed to destroy session", zap.Error(err))
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// SetFlash stores a one-shot message on the session of a token
func (s *sessionService) SetFlash(ctx context.Context, token string, flash models.Flash) error {
	if err := s.repo.SetFlash(ctx, hashToken(token), flash); err != nil {
		return fmt.Errorf("failed to set flash: %w", err)
	}
	return nil
}

// TakeFlash returns the pending message of a session and clears it.
// The same message is never returned twice.
func (s *sessionService) TakeFlash(ctx context.Context, token string) (*models.Flash, error) {
	if token == "" {
		return nil, nil
	}
	flash, err := s.repo.TakeFlash(ctx, hashToken(token))
	if err != nil {
		s.logger.Error("failed to take flash", zap.Error(err))
		return nil, fmt.Errorf("failed to take flash: %w", err)
	}
	return flash, nil
}

// AddFlash puts a message on the current session, or on a new guest session when
// there is none or it was deleted meanwhile. The returned bool reports whether a new
// session was created, in which case its cookie must be sent.
func (s *sessionService) AddFlash(ctx context.Context, current *models.Session, flash models.Flash) (*models.Session, bool, error) {
	if current != nil {
		err := s.SetFlash(ctx, current.Token, flash)
		if err == nil {
			current.Flash = &flash
			return current, false, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, false, err
		}
	}

	// a revoked session never comes back authenticated
	session, err := s.create(ctx, nil, &flash)
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

// DestroyForUser revokes every session of a user
func (s *sessionService) DestroyForUser(ctx context.Context, userID int) (int, error) {
	count, err := s.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to revoke sessions", zap.Error(err), zap.Int("userID", userID))
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return count, nil
}

// DeleteExpired purges sessions that have expired by now
func (s *sessionService) DeleteExpired(ctx context.Context) (int, error) {
	count, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to delete expired sessions", zap.Error(err))
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	s.logger.Info("expired sessions deleted", zap.Int("count", count))
	return count, nil
}
