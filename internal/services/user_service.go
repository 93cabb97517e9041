package services

import (
	"context"
	"fmt"

	"lapor-chat/internal/models"
	"lapor-chat/internal/storage"
)

// UserService covers profile reads and the operator-only role changes.
type UserService interface {
	GetUserProfile(ctx context.Context, userID string) (*models.User, error)
	Promote(ctx context.Context, userID string) error
	Demote(ctx context.Context, userID string) error
	ListAdmins(ctx context.Context) ([]*models.User, error)
}

type userService struct {
	userRepo storage.UserRepository
}

// NewUserService creates a UserService.
func NewUserService(userRepo storage.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// Promote makes userID a notification recipient.
func (s *userService) Promote(ctx context.Context, userID string) error {
	return s.userRepo.UpdateRole(ctx, userID, models.RoleAdmin)
}

func (s *userService) Demote(ctx context.Context, userID string) error {
	return s.userRepo.UpdateRole(ctx, userID, models.RoleUser)
}

func (s *userService) ListAdmins(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RoleAdmin)
}
