package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grmr/account-service/internal/auth/middleware"
	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/services"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps an error returned by a service to a status code.
// Unexpected errors are logged and answered with a generic message.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateEmail):
		h.RespondError(w, http.StatusConflict, "this email address is already in use")
	case errors.Is(err, services.ErrInvalidCredentials):
		h.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		h.RespondError(w, http.StatusForbidden, services.ErrForbidden.Error())
	case errors.Is(err, services.ErrAccountInactive):
		h.RespondError(w, http.StatusForbidden, services.ErrAccountInactive.Error())
	case errors.Is(err, services.ErrUserNotFound):
		h.RespondError(w, http.StatusNotFound, "user not found")
	default:
		h.Logger.Error("failed to "+operation, zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON decodes the request body into dst
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// caller returns the claims set by the auth gate, or nil for anonymous requests
func caller(r *http.Request) *service.Claims {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		return nil
	}
	return claims
}

// MessageResponse is a response carrying only a message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
}
