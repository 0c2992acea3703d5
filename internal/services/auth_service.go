package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

// UserRepository is the interface that wraps methods for User table data access used by authentication
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user; its ID is set on success.
	//
	// If the username or email is taken, models.ErrConflict will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method GetByUsernameOrEmail retrieves a user whose username or email equals "identifier".
	//
	// If no such user exists, models.ErrNotFound will be returned together with "nil" value.
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method ExistsByUsername checks if a user with such username exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Method UpdateLastLogin stamps the time of the last successful login.
	UpdateLastLogin(ctx context.Context, userID int, at time.Time) error
	// Method Delete removes a user together with everything the user owns.
	//
	// If user with such ID does not exist, models.ErrNotFound will be returned.
	Delete(ctx context.Context, userID int) error
}

// PasswordVerifier hashes and checks passwords
type PasswordVerifier interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	// VerifyDummy spends the time of one Verify without a real digest
	VerifyDummy(plaintext string)
}

// SessionManager is the part of the session service used by authentication
type SessionManager interface {
	Create(ctx context.Context, user *models.UserSnapshot) (*models.Session, error)
	Destroy(ctx context.Context, token string) error
}

// LoginRecorder appends login attempts to the audit log
type LoginRecorder interface {
	Record(ctx context.Context, attempt *models.LoginAttempt) error
}

type authService struct {
	userRepo  UserRepository
	passwords PasswordVerifier
	sessions  SessionManager
	audit     LoginRecorder
	validator *FormValidator
	now       func() time.Time
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	passwords PasswordVerifier,
	sessions SessionManager,
	audit LoginRecorder,
	validator *FormValidator,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:  userRepo,
		passwords: passwords,
		sessions:  sessions,
		audit:     audit,
		validator: validator,
		now:       time.Now,
		logger:    logger,
	}
}

// Register creates an active account with the user role.
//
// Invalid input and taken usernames or emails are returned as models.ValidationErrors.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	errs := models.ValidationErrors{}
	if err := s.validator.Validate(req, errs); err != nil {
		return nil, err
	}

	if _, bad := errs["username"]; !bad {
		exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if exists {
			errs.Add("username", "That username is already taken.")
		}
	}
	if _, bad := errs["email"]; !bad {
		exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			errs.Add("email", "An account with that email already exists.")
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return s.createUser(ctx, req.Username, req.Email, req.Password, models.RoleUser)
}

func (s *authService) createUser(ctx context.Context, username, email, password string, role models.Role) (*models.User, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ValidationErrors{"username": "That username or email is already taken."}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.Int("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a username or email with a password and starts a session.
//
// Every call appends exactly one login attempt to the audit log, whose success flag
// equals "a session was returned". Unknown identifiers, wrong passwords and inactive
// accounts all return models.ErrInvalidCredentials. The caller's previous session, if
// any, is destroyed once the new one is established.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest, meta models.LoginMeta, current *models.Session) (*models.Session, error) {
	req.Identifier = strings.TrimSpace(req.Identifier)
	attempt := &models.LoginAttempt{
		Identifier: req.Identifier,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	}

	errs := models.ValidationErrors{}
	if err := s.validator.Validate(req, errs); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, s.fail(ctx, attempt, errs)
	}

	user, err := s.userRepo.GetByUsernameOrEmail(ctx, req.Identifier)
	if errors.Is(err, models.ErrNotFound) {
		s.passwords.VerifyDummy(req.Password)
		return nil, s.fail(ctx, attempt, models.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, s.fail(ctx, attempt, fmt.Errorf("failed to look up user: %w", err))
	}

	attempt.UserID = &user.ID
	if !s.passwords.Verify(req.Password, user.PasswordHash) || !user.IsActive {
		return nil, s.fail(ctx, attempt, models.ErrInvalidCredentials)
	}

	session, err := s.sessions.Create(ctx, user.Snapshot())
	if err != nil {
		return nil, s.fail(ctx, attempt, err)
	}

	attempt.Success = true
	if err := s.audit.Record(ctx, attempt); err != nil {
		if destroyErr := s.sessions.Destroy(ctx, session.Token); destroyErr != nil {
			s.logger.Error("failed to destroy unaudited session", zap.Error(destroyErr), zap.Int("userID", user.ID))
		}
		return nil, err
	}

	if current != nil {
		if err := s.sessions.Destroy(ctx, current.Token); err != nil {
			s.logger.Warn("failed to destroy previous session", zap.Error(err))
		}
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err), zap.Int("userID", user.ID))
	}

	s.logger.Info("user logged in", zap.Int("userID", user.ID), zap.String("ip", meta.IP))
	return session, nil
}

// fail records an unsuccessful attempt and returns cause.
// If recording fails the audit error wins, so the caller sees a server error.
func (s *authService) fail(ctx context.Context, attempt *models.LoginAttempt, cause error) error {
	attempt.Success = false
	if err := s.audit.Record(ctx, attempt); err != nil {
		return fmt.Errorf("%w (login failed: %v)", err, cause)
	}
	return cause
}

// Logout destroys the current session. Logging out without a session succeeds.
func (s *authService) Logout(ctx context.Context, current *models.Session) error {
	if current == nil {
		return nil
	}
	return s.sessions.Destroy(ctx, current.Token)
}

// DeleteAccount removes the current user and everything they own after re-checking the password,
// then destroys the session.
//
// A wrong password is returned as models.ValidationErrors.
func (s *authService) DeleteAccount(ctx context.Context, current *models.Session, password string) error {
	if !current.Authenticated() {
		return models.ErrNotFound
	}

	user, err := s.userRepo.GetByID(ctx, current.User.ID)
	if err != nil {
		return err
	}
	if !s.passwords.Verify(password, user.PasswordHash) {
		return models.ValidationErrors{"password": "Password is incorrect."}
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if err := s.sessions.Destroy(ctx, current.Token); err != nil {
		return err
	}

	s.logger.Info("account deleted", zap.Int("userID", user.ID))
	return nil
}

// EnsureAdmin creates the bootstrap administrator unless the username or email is already in use
func (s *authService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	req := &models.RegisterRequest{
		Username:        strings.TrimSpace(username),
		Email:           strings.ToLower(strings.TrimSpace(email)),
		Password:        password,
		ConfirmPassword: password,
	}

	for _, identifier := range []string{req.Username, req.Email} {
		_, err := s.userRepo.GetByUsernameOrEmail(ctx, identifier)
		if err == nil {
			s.logger.Info("bootstrap admin already present", zap.String("identifier", identifier))
			return nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to look up bootstrap admin: %w", err)
		}
	}

	errs := models.ValidationErrors{}
	if err := s.validator.Validate(req, errs); err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid bootstrap admin: %w", errs)
	}

	_, err := s.createUser(ctx, req.Username, req.Email, req.Password, models.RoleAdmin)
	return err
}
