package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for account creation and session business logic.
type AuthService interface {
	// Method Signup validates and creates a user account and returns it with an access token.
	//
	// "req" parameter contains name, email, password and optional role and active flag.
	//
	// If the payload is invalid or the email is taken, the error will be returned together with nil user.
	Signup(ctx context.Context, req *models.CreateUserRequest) (*models.User, string, error)
	// Method CreateAdmin creates an administrator account and returns it with an access token.
	//
	// "caller" parameter is the authenticated caller or nil.
	CreateAdmin(ctx context.Context, caller *service.Claims, req *models.CreateUserRequest) (*models.User, string, error)
	// Method UserLogin checks credentials of any account and returns an access token.
	UserLogin(ctx context.Context, req *models.LoginRequest) (*models.User, string, error)
	// Method AdminLogin checks credentials of an administrator and returns an access token.
	//
	// Failed and successful attempts are recorded in the action history.
	AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.User, string, error)
	// Method Logout ends the session of the caller.
	//
	// If the caller no longer exists, models.ErrUserNotFound will be returned.
	Logout(ctx context.Context, caller *service.Claims) error
}

// Guard is the part of the auth gate used to protect routes
type Guard interface {
	Authenticate(next http.Handler) http.Handler
	OptionalAuthenticate(next http.Handler) http.Handler
	RequireRole(role models.Role) func(http.Handler) http.Handler
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
	guard       Guard
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService AuthService,
	guard Guard,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
		guard:       guard,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /grmr
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/users/create-account", h.Signup)
	r.Post("/users/login", h.UserLogin)
	r.Post("/admin/login", h.AdminLogin)
	r.With(h.guard.OptionalAuthenticate).Post("/admin/create-account", h.CreateAdmin)
	r.With(h.guard.Authenticate).Post("/user/logout", h.Logout)
}

// Signup handles POST /users/create-account
// @Summary Create an account
// @Description Public signup. The role defaults to "user" when omitted. Returns the created user and an access token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "Account data"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 409 {object} ErrorResponse "Email already in use"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users/create-account [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.authService.Signup(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "create account")
		return
	}

	h.RespondJSON(w, http.StatusCreated, models.AuthResponse{
		Message: "user created successfully",
		User:    user,
		Token:   token,
	})
}

// CreateAdmin handles POST /admin/create-account
// @Summary Create an administrator
// @Description Creates an administrator account. Open for bootstrap; the creation is recorded when an administrator token is presented.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "Account data"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 409 {object} ErrorResponse "Email already in use"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /admin/create-account [post]
func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.authService.CreateAdmin(r.Context(), caller(r), &req)
	if err != nil {
		h.RespondServiceError(w, err, "create administrator")
		return
	}

	h.RespondJSON(w, http.StatusCreated, models.AuthResponse{
		Message: "administrator created successfully",
		User:    user,
		Token:   token,
	})
}

// UserLogin handles POST /users/login
// @Summary Login
// @Description Authenticate any account with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 403 {object} ErrorResponse "Account inactive"
// @Router /users/login [post]
func (h *AuthHandler) UserLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.authService.UserLogin(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "login user")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.LoginResponse{
		Message: fmt.Sprintf("login successful. Welcome %s.", user.Name),
		Token:   token,
	})
}

// AdminLogin handles POST /admin/login
// @Summary Administrator login
// @Description Authenticate an administrator. Every attempt is recorded in the action history.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 403 {object} ErrorResponse "Not an administrator"
// @Router /admin/login [post]
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.authService.AdminLogin(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "login administrator")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.LoginResponse{
		Message: fmt.Sprintf("login successful. Welcome %s.", user.Name),
		Token:   token,
	})
}

// Logout handles POST /user/logout
// @Summary Logout
// @Description Records the end of the caller's session
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse "Missing or invalid token"
// @Failure 404 {object} ErrorResponse "User not found"
// @Security BearerAuth
// @Router /user/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), caller(r)); err != nil {
		h.RespondServiceError(w, err, "logout user")
		return
	}

	h.RespondJSON(w, http.StatusOK, MessageResponse{Message: "logout successful"})
}
