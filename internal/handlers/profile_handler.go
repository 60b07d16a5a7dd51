package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
	"go.uber.org/zap"
)

// avatarField is the multipart field carrying the uploaded image
const avatarField = "avatar"

// multipartMemory is the part of a multipart body kept in memory, the rest spills to disk
const multipartMemory = 1 << 20

// ProfileService is the interface that wraps methods for the caller's own account.
type ProfileService interface {
	// Method GetProfile returns the caller's own record.
	//
	// If the caller no longer exists, models.ErrUserNotFound will be returned.
	GetProfile(ctx context.Context, caller *service.Claims) (*models.User, error)
	// Method UpdateAvatar stores a new avatar for the caller and returns the updated user and the avatar URL.
	UpdateAvatar(ctx context.Context, caller *service.Claims, file io.Reader) (*models.User, string, error)
}

// ProfileHandler handles profile-related HTTP requests
type ProfileHandler struct {
	BaseHandler
	profileService ProfileService
	guard          Guard
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService ProfileService, guard Guard, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		profileService: profileService,
		guard:          guard,
	}
}

// RegisterRoutes registers all profile handler routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticate)
		r.Get("/user/profile", h.GetProfile)
		r.Put("/user/avatar", h.UpdateAvatar)
	})
}

// GetProfile handles GET /user/profile
// @Summary Get own profile
// @Description Returns the authenticated user's record
// @Tags profile
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Missing or invalid token"
// @Failure 404 {object} ErrorResponse "User not found"
// @Security BearerAuth
// @Router /user/profile [get]
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.profileService.GetProfile(r.Context(), caller(r))
	if err != nil {
		h.RespondServiceError(w, err, "get profile")
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

// UpdateAvatar handles PUT /user/avatar
// @Summary Update own avatar
// @Description Uploads an image in the "avatar" multipart field and replaces the previous avatar
// @Tags profile
// @Accept mpfd
// @Produce json
// @Param avatar formData file true "Image file"
// @Success 200 {object} models.AvatarResponse
// @Failure 400 {object} ErrorResponse "Missing or invalid image"
// @Failure 401 {object} ErrorResponse "Missing or invalid token"
// @Failure 404 {object} ErrorResponse "User not found"
// @Security BearerAuth
// @Router /user/avatar [put]
func (h *ProfileHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.RespondError(w, http.StatusBadRequest, "file too large")
			return
		}
		h.RespondError(w, http.StatusBadRequest, "no image file provided")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile(avatarField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.RespondError(w, http.StatusBadRequest, "no image file provided")
			return
		}
		h.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer file.Close()

	user, avatarURL, err := h.profileService.UpdateAvatar(r.Context(), caller(r), file)
	if err != nil {
		h.RespondServiceError(w, err, "update avatar")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.AvatarResponse{
		Message:   "avatar updated successfully",
		User:      user,
		AvatarURL: avatarURL,
	})
}
