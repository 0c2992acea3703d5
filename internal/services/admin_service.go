package services

import (
	"context"
	"fmt"

	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

// topUsersLimit is the length of the admin leaderboard
const topUsersLimit = 5

// AdminUserRepository is the interface that wraps methods for User table data access used by administration
type AdminUserRepository interface {
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method UpdateRole sets the role of a user.
	//
	// If user with such ID does not exist, models.ErrNotFound will be returned.
	UpdateRole(ctx context.Context, userID int, role models.Role) error
	// Method SetActive sets the active flag of a user.
	//
	// If user with such ID does not exist, models.ErrNotFound will be returned.
	SetActive(ctx context.Context, userID int, active bool) error
	// Method List returns all users ordered by creation time.
	List(ctx context.Context) ([]models.User, error)
}

// SessionRevoker revokes every session of a user
type SessionRevoker interface {
	DestroyForUser(ctx context.Context, userID int) (int, error)
}

type adminService struct {
	userRepo  AdminUserRepository
	statsRepo StatsRepository
	sessions  SessionRevoker
	logger    *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo AdminUserRepository, statsRepo StatsRepository, sessions SessionRevoker, logger *zap.Logger) *adminService {
	return &adminService{
		userRepo:  userRepo,
		statsRepo: statsRepo,
		sessions:  sessions,
		logger:    logger,
	}
}

// Overview returns the totals, the leaderboard and the user list
func (s *adminService) Overview(ctx context.Context) (*models.AdminOverview, error) {
	users, workouts, metrics, err := s.statsRepo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}
	top, err := s.statsRepo.TopUsersByWorkouts(ctx, topUsersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top users: %w", err)
	}
	list, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &models.AdminOverview{
		UserCount:    users,
		WorkoutCount: workouts,
		MetricCount:  metrics,
		TopUsers:     top,
		Users:        list,
	}, nil
}

// ChangeRole sets the role of the target user.
//
// rawRole must name a role, otherwise models.ErrInvalidRole is returned. An admin
// demoting their own account gets models.ErrSelfModification and nothing changes.
// The target's existing sessions keep their role until the next login.
func (s *adminService) ChangeRole(ctx context.Context, actor *models.UserSnapshot, targetID int, rawRole string) (*models.User, error) {
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	if actor.ID == targetID && role != models.RoleAdmin {
		return nil, models.ErrSelfModification
	}

	if err := s.userRepo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role changed",
		zap.Int("actorID", actor.ID),
		zap.Int("userID", targetID),
		zap.String("role", string(role)),
	)
	return user, nil
}

// ToggleActive flips the active flag of the target user. Deactivation revokes the target's sessions.
//
// An admin cannot toggle their own account: models.ErrSelfModification is returned and nothing changes.
func (s *adminService) ToggleActive(ctx context.Context, actor *models.UserSnapshot, targetID int) (*models.User, error) {
	if actor.ID == targetID {
		return nil, models.ErrSelfModification
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	active := !user.IsActive
	if err := s.userRepo.SetActive(ctx, targetID, active); err != nil {
		return nil, err
	}
	user.IsActive = active

	if !active {
		revoked, err := s.sessions.DestroyForUser(ctx, targetID)
		if err != nil {
			return nil, err
		}
		s.logger.Info("user deactivated", zap.Int("actorID", actor.ID), zap.Int("userID", targetID), zap.Int("revokedSessions", revoked))
	} else {
		s.logger.Info("user activated", zap.Int("actorID", actor.ID), zap.Int("userID", targetID))
	}

	return user, nil
}
