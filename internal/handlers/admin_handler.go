package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for user management business logic.
type AdminService interface {
	// Method CreateUser creates an account on behalf of an administrator.
	//
	// The role from the payload is honored and defaults to "user".
	CreateUser(ctx context.Context, caller *service.Claims, req *models.CreateUserRequest) (*models.User, error)
	// Method ListUsers returns every account.
	//
	// The consultation is recorded when the caller is an administrator.
	ListUsers(ctx context.Context, caller *service.Claims) ([]models.User, error)
	// Method UpdateUser applies a partial update to the account with the given id.
	//
	// If the account does not exist, models.ErrUserNotFound will be returned.
	UpdateUser(ctx context.Context, caller *service.Claims, userID string, req *models.UpdateUserRequest) (*models.User, error)
	// Method DeleteUser removes the account with the given id together with its avatar.
	DeleteUser(ctx context.Context, caller *service.Claims, userID string) error
}

// AdminHandler handles user management HTTP requests
type AdminHandler struct {
	BaseHandler
	adminService AdminService
	guard        Guard
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, guard Guard, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
		guard:        guard,
	}
}

// RegisterRoutes registers all admin handler routes
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticate)
		r.Get("/get-users", h.ListUsers)
		r.Put("/users/update-user/{id}", h.UpdateUser)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequireRole(models.RoleAdmin))
			r.Post("/admin/create-user", h.CreateUser)
			r.Delete("/admin/delete-user/{id}", h.DeleteUser)
		})
	})
}

// UserListResponse is returned by the user list endpoint
type UserListResponse struct {
	Users []models.User `json:"users"`
}

// UserResponse wraps a single user together with a message
type UserResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// CreateUser handles POST /admin/create-user
// @Summary Create a user
// @Description Administrator-only account creation. The role defaults to "user".
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "Account data"
// @Success 201 {object} UserResponse
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 401 {object} ErrorResponse "Missing or invalid token"
// @Failure 403 {object} ErrorResponse "Not an administrator"
// @Failure 409 {object} ErrorResponse "Email already in use"
// @Security BearerAuth
// @Router /admin/create-user [post]
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), caller(r), &req)
	if err != nil {
		h.RespondServiceError(w, err, "create user")
		return
	}

	h.RespondJSON(w, http.StatusCreated, UserResponse{
		Message: "user created successfully",
		User:    user,
	})
}

// ListUsers handles GET /get-users
// @Summary List users
// @Description Returns every account. Password hashes are never included.
// @Tags admin
// @Produce json
// @Success 200 {object} UserListResponse
// @Failure 401 {object} ErrorResponse "Missing or invalid token"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /get-users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context(), caller(r))
	if err != nil {
		h.RespondServiceError(w, err, "list users")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	h.RespondJSON(w, http.StatusOK, UserListResponse{Users: users})
}

// UpdateUser handles PUT /users/update-user/{id}
// @Summary Update a user
// @Description Partial update of name, email, role and active flag
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 401 {object} ErrorResponse "Missing or invalid token"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 409 {object} ErrorResponse "Email already in use"
// @Security BearerAuth
// @Router /users/update-user/{id} [put]
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), caller(r), id, &req)
	if err != nil {
		h.RespondServiceError(w, err, "update user")
		return
	}

	h.RespondJSON(w, http.StatusOK, UserResponse{
		Message: "user updated successfully",
		User:    user,
	})
}

// DeleteUser handles DELETE /admin/delete-user/{id}
// @Summary Delete a user
// @Description Administrator-only removal of an account and its avatar
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse "Missing or invalid token"
// @Failure 403 {object} ErrorResponse "Not an administrator"
// @Failure 404 {object} ErrorResponse "User not found"
// @Security BearerAuth
// @Router /admin/delete-user/{id} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.adminService.DeleteUser(r.Context(), caller(r), id); err != nil {
		h.RespondServiceError(w, err, "delete user")
		return
	}

	h.RespondJSON(w, http.StatusOK, MessageResponse{Message: "user deleted successfully"})
}
