package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
	"github.com/grmr/account-service/internal/storage"
	"go.uber.org/zap"
)

// ProfileUserRepository is the interface that wraps methods for User table data access needed by profile service
type ProfileUserRepository interface {
	// GetByID retrieves a user by ID
	//
	// If user with such ID does not exist, models.ErrUserNotFound will be returned.
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// UpdateAvatar replaces the stored avatar path of a user
	//
	// If user with such ID does not exist, models.ErrUserNotFound will be returned.
	UpdateAvatar(ctx context.Context, userID, avatarPath string) error
}

// AvatarStorage stores avatar images
type AvatarStorage interface {
	// SaveAvatar stores an image and returns its path.
	// Content that is not an image wraps storage.ErrInvalidFile.
	SaveAvatar(r io.Reader) (string, error)
	// Delete removes a stored file
	Delete(path string) error
}

// profileService implements operations of the caller on its own account
type profileService struct {
	userRepo ProfileUserRepository
	avatars  AvatarStorage
	auditor  ActionRecorder
	logger   *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	userRepo ProfileUserRepository,
	avatars AvatarStorage,
	auditor ActionRecorder,
	logger *zap.Logger,
) *profileService {
	return &profileService{
		userRepo: userRepo,
		avatars:  avatars,
		auditor:  auditor,
		logger:   logger,
	}
}

// GetProfile retrieves the caller's own record
func (s *profileService) GetProfile(ctx context.Context, caller *service.Claims) (*models.User, error) {
	return s.userRepo.GetByID(ctx, caller.UserID())
}

// UpdateAvatar stores a new avatar for the caller and returns the updated user with the avatar URL.
// The previous avatar file is removed on a best effort basis.
func (s *profileService) UpdateAvatar(ctx context.Context, caller *service.Claims, file io.Reader) (*models.User, string, error) {
	avatarPath, err := s.avatars.SaveAvatar(file)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFile) {
			return nil, "", validationError(err)
		}
		return nil, "", fmt.Errorf("failed to save avatar: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, caller.UserID())
	if err != nil {
		s.discard(avatarPath)
		return nil, "", err
	}

	if err := s.userRepo.UpdateAvatar(ctx, user.ID, avatarPath); err != nil {
		s.discard(avatarPath)
		return nil, "", err
	}

	if user.Avatar != "" {
		s.discard(user.Avatar)
	}
	user.Avatar = avatarPath

	if isAdmin(caller) {
		s.auditor.Record(ctx, callerEntry(caller, models.ActionModification, models.TargetAvatar, user.ID,
			fmt.Sprintf("avatar update for user %s (%s)", user.Name, user.Email)))
	}

	return user, storage.PublicURL(avatarPath), nil
}

// discard removes a stored avatar, logging failures
func (s *profileService) discard(path string) {
	if err := s.avatars.Delete(path); err != nil {
		s.logger.Warn("failed to delete avatar file", zap.String("path", path), zap.Error(err))
	}
}
