package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost is the bcrypt work factor for stored passwords
const passwordHashCost = 10

// AuthUserRepository is the interface that wraps methods for User table data access needed by auth service
type AuthUserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user. Its ID is generated when empty.
	//
	// If the email is already used, models.ErrDuplicateEmail will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmail retrieves a user by email.
	//
	// "email" parameter is the normalized email.
	//
	// If user with such email does not exist, models.ErrUserNotFound will be returned.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, models.ErrUserNotFound will be returned.
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// RevokedTokenRepository is the interface that wraps methods for RevokedToken table data access
type RevokedTokenRepository interface {
	// Method Create records a revoked token id.
	Create(ctx context.Context, token *models.RevokedToken) error
	// Method DeleteExpired deletes revocations of tokens expired at or before now and returns their number.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// authService implements account creation, login and logout
type authService struct {
	userRepo         AuthUserRepository
	revokedTokenRepo RevokedTokenRepository
	tokenGenerator   *service.TokenGenerator
	auditor          ActionRecorder
	logger           *zap.Logger
	now              func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo AuthUserRepository,
	tokenGenerator *service.TokenGenerator,
	auditor ActionRecorder,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		tokenGenerator: tokenGenerator,
		auditor:        auditor,
		logger:         logger,
		now:            time.Now,
	}
}

// WithRevocation enables server-side invalidation of tokens at logout
func (s *authService) WithRevocation(repo RevokedTokenRepository) *authService {
	s.revokedTokenRepo = repo
	return s
}

// Signup creates a user account and returns it with an access token.
// The role defaults to "user" when not supplied.
func (s *authService) Signup(ctx context.Context, req *models.CreateUserRequest) (*models.User, string, error) {
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user, err := createUser(ctx, s.userRepo, req, role)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// CreateAdmin creates an administrator account and returns it with an access token.
//
// Anyone may call it to bootstrap the first administrator. When the caller is an
// authenticated administrator the creation is recorded in the action history.
func (s *authService) CreateAdmin(ctx context.Context, caller *service.Claims, req *models.CreateUserRequest) (*models.User, string, error) {
	req.Role = models.RoleAdmin
	user, err := createUser(ctx, s.userRepo, req, models.RoleAdmin)
	if err != nil {
		return nil, "", err
	}

	if isAdmin(caller) {
		s.auditor.Record(ctx, callerEntry(caller, models.ActionCreation, models.TargetAdmin, user.ID,
			fmt.Sprintf("creation of administrator %s (%s)", user.Name, user.Email)))
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// UserLogin authenticates any account. Failures are not recorded.
func (s *authService) UserLogin(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", validationError(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, "", fmt.Errorf("%w: no account is associated with this email", ErrInvalidCredentials)
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", fmt.Errorf("%w: incorrect password", ErrInvalidCredentials)
	}

	if !user.Active {
		return nil, "", ErrAccountInactive
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// AdminLogin authenticates an administrator. Every failure and every success is recorded.
func (s *authService) AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", validationError(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.auditor.Record(ctx, &models.ActionHistory{
				ActorID:    models.UnknownActor,
				ActorLabel: req.Email,
				Action:     models.ActionLoginFailedUnknownEmail,
				TargetType: models.TargetSystem,
				Details:    fmt.Sprintf("admin login attempt with unknown email: %s", req.Email),
			})
			return nil, "", fmt.Errorf("%w: no account is associated with this email", ErrInvalidCredentials)
		}
		return nil, "", err
	}

	if user.Role != models.RoleAdmin {
		s.auditor.Record(ctx, userEntry(user, models.ActionLoginFailedNotAdmin,
			fmt.Sprintf("admin login attempt by a non-admin user: %s", user.Email)))
		return nil, "", ErrForbidden
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.auditor.Record(ctx, userEntry(user, models.ActionLoginFailedWrongPassword,
			fmt.Sprintf("admin login attempt with incorrect password: %s", user.Email)))
		return nil, "", fmt.Errorf("%w: incorrect password", ErrInvalidCredentials)
	}

	if !user.Active {
		s.auditor.Record(ctx, userEntry(user, models.ActionLoginFailedInactive,
			fmt.Sprintf("admin login attempt on an inactive account: %s", user.Email)))
		return nil, "", ErrAccountInactive
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	s.auditor.Record(ctx, userEntry(user, models.ActionConnexion,
		fmt.Sprintf("login of administrator %s (%s)", user.Name, user.Email)))

	return user, token, nil
}

// Logout records the end of the caller's session. With revocation enabled the
// presented token is rejected from now on.
func (s *authService) Logout(ctx context.Context, caller *service.Claims) error {
	user, err := s.userRepo.GetByID(ctx, caller.UserID())
	if err != nil {
		return err
	}

	if s.revokedTokenRepo != nil && caller.ID != "" && caller.ExpiresAt != nil {
		revoked := &models.RevokedToken{
			JTI:       caller.ID,
			UserID:    user.ID,
			ExpiresAt: caller.ExpiresAt.Time,
		}
		if err := s.revokedTokenRepo.Create(ctx, revoked); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}
	}

	s.auditor.Record(ctx, userEntry(user, models.ActionDeconnexion,
		fmt.Sprintf("logout of user %s (%s)", user.Name, user.Email)))

	return nil
}

// DeleteExpiredRevokedTokens purges revocations whose token has expired anyway
func (s *authService) DeleteExpiredRevokedTokens(ctx context.Context) (int, error) {
	if s.revokedTokenRepo == nil {
		return 0, nil
	}
	return s.revokedTokenRepo.DeleteExpired(ctx, s.now().UTC())
}

// issueToken generates an access token for user
func (s *authService) issueToken(user *models.User) (string, error) {
	token, err := s.tokenGenerator.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Debug("access token issued",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
		zap.Duration("expiresIn", s.tokenGenerator.AccessTokenExpiry()),
	)

	return token, nil
}

// Below is the methods shared between auth and admin services

// userCreator is the part of the user repositories needed to create accounts
type userCreator interface {
	Create(ctx context.Context, user *models.User) error
}

// userEntry builds an audit entry attributed to user itself
func userEntry(user *models.User, action models.ActionKind, details string) *models.ActionHistory {
	return &models.ActionHistory{
		ActorID:    user.ID,
		ActorLabel: user.Email,
		Action:     action,
		TargetType: models.TargetSystem,
		Details:    details,
	}
}

// createUser validates the request, hashes the password and stores a new user with role
func createUser(ctx context.Context, userRepo userCreator, req *models.CreateUserRequest, role models.Role) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Role:         role,
		Active:       active,
	}

	if err := userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
