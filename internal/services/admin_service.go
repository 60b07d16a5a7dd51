package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
	"go.uber.org/zap"
)

// AdminUserRepository is the interface that wraps methods for User table data access needed by admin service
type AdminUserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// If the email is already used, models.ErrDuplicateEmail will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, models.ErrUserNotFound will be returned.
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// Method GetAll retrieves all users ordered by creation time.
	GetAll(ctx context.Context) ([]models.User, error)
	// Method Update applies the supplied fields of req and returns the updated user.
	//
	// "userID" parameter is used to identify the user to update.
	// "req" parameter contains the fields to update; nil fields are left untouched.
	//
	// Returns models.ErrUserNotFound or models.ErrDuplicateEmail.
	Update(ctx context.Context, userID string, req *models.UpdateUserRequest) (*models.User, error)
	// Method Delete deletes a user by ID.
	//
	// If user with such ID does not exist, models.ErrUserNotFound will be returned.
	Delete(ctx context.Context, userID string) error
}

// FileRemover removes stored files
type FileRemover interface {
	Delete(path string) error
}

// adminService implements user management operations
type adminService struct {
	userRepo AdminUserRepository
	files    FileRemover
	auditor  ActionRecorder
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo AdminUserRepository,
	files FileRemover,
	auditor ActionRecorder,
	logger *zap.Logger,
) *adminService {
	return &adminService{
		userRepo: userRepo,
		files:    files,
		auditor:  auditor,
		logger:   logger,
	}
}

// CreateUser creates an account on behalf of an administrator. No token is issued.
func (s *adminService) CreateUser(ctx context.Context, caller *service.Claims, req *models.CreateUserRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user, err := createUser(ctx, s.userRepo, req, role)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, callerEntry(caller, models.ActionCreation, models.TargetUser, user.ID,
		fmt.Sprintf("creation of user %s (%s) with role %s", user.Name, user.Email, user.Role)))

	return user, nil
}

// ListUsers returns every user. Consultations by administrators are recorded.
func (s *adminService) ListUsers(ctx context.Context, caller *service.Claims) ([]models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if isAdmin(caller) {
		s.auditor.Record(ctx, callerEntry(caller, models.ActionConsultation, models.TargetUserList, "",
			fmt.Sprintf("consultation of the user list (%d users found)", len(users))))
	}

	return users, nil
}

// UpdateUser applies a partial update to a user and returns the result.
// Modifications by administrators are recorded with the list of changed fields.
func (s *adminService) UpdateUser(ctx context.Context, caller *service.Claims, userID string, req *models.UpdateUserRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	existing, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.Update(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if isAdmin(caller) {
		s.auditor.Record(ctx, callerEntry(caller, models.ActionModification, models.TargetUser, userID,
			describeUserChanges(existing, req)))
	}

	return updated, nil
}

// DeleteUser removes a user and its avatar file
func (s *adminService) DeleteUser(ctx context.Context, caller *service.Claims, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	s.auditor.Record(ctx, callerEntry(caller, models.ActionSuppression, models.TargetUser, userID,
		fmt.Sprintf("deletion of user %s (%s)", user.Name, user.Email)))

	if user.Avatar != "" {
		if err := s.files.Delete(user.Avatar); err != nil {
			s.logger.Warn("failed to delete avatar of deleted user",
				zap.String("userId", userID), zap.String("avatar", user.Avatar), zap.Error(err))
		}
	}

	return nil
}

// describeUserChanges lists the supplied fields of req that differ from before
func describeUserChanges(before *models.User, req *models.UpdateUserRequest) string {
	var changes []string

	if req.Name != nil && *req.Name != before.Name {
		changes = append(changes, fmt.Sprintf("name: %s → %s", before.Name, *req.Name))
	}
	if req.Email != nil && *req.Email != before.Email {
		changes = append(changes, fmt.Sprintf("email: %s → %s", before.Email, *req.Email))
	}
	if req.Role != nil && *req.Role != before.Role {
		changes = append(changes, fmt.Sprintf("role: %s → %s", before.Role, *req.Role))
	}
	if req.Active != nil && *req.Active != before.Active {
		changes = append(changes, fmt.Sprintf("status: %s → %s", activeStatus(before.Active), activeStatus(*req.Active)))
	}

	summary := fmt.Sprintf("modification of user %s (%s)", before.Name, before.Email)
	if len(changes) == 0 {
		return summary
	}
	return summary + " - changes: " + strings.Join(changes, ", ")
}

func activeStatus(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
