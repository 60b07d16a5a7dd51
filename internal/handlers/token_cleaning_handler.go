package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RevokedTokenCleaner purges revoked token ids whose token has expired
type RevokedTokenCleaner interface {
	DeleteExpiredRevokedTokens(ctx context.Context) (int, error)
}

// TokenCleaningHandler handles token cleaning requests
type TokenCleaningHandler struct {
	BaseHandler
	cleaner RevokedTokenCleaner
	apiKey  func(http.Handler) http.Handler
}

// NewTokenCleaningHandler creates a new token cleaning handler.
// "apiKey" parameter is the middleware protecting the maintenance route.
func NewTokenCleaningHandler(
	cleaner RevokedTokenCleaner,
	apiKey func(http.Handler) http.Handler,
	logger *zap.Logger,
) *TokenCleaningHandler {
	return &TokenCleaningHandler{
		BaseHandler: BaseHandler{Logger: logger},
		cleaner:     cleaner,
		apiKey:      apiKey,
	}
}

// RegisterRoutes registers token cleaning handler routes
func (h *TokenCleaningHandler) RegisterRoutes(r chi.Router) {
	r.With(h.apiKey).Delete("/tokens/revoked/expired", h.CleanRevokedTokens)
}

// CleanRevokedTokensResponse reports how many revocations were purged
type CleanRevokedTokensResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

// CleanRevokedTokens handles DELETE /tokens/revoked/expired
// @Summary Clean expired revocations
// @Description Removes revoked token ids whose token expiry has passed
// @Tags tokens
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} CleanRevokedTokensResponse
// @Failure 401 {object} ErrorResponse "Invalid or missing API key"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /tokens/revoked/expired [delete]
func (h *TokenCleaningHandler) CleanRevokedTokens(w http.ResponseWriter, r *http.Request) {
	deletedCount, err := h.cleaner.DeleteExpiredRevokedTokens(r.Context())
	if err != nil {
		h.Logger.Error("failed to delete expired revoked tokens", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// 0 deleted rows is not an error
	h.Logger.Info("revoked token cleaning completed", zap.Int("deletedCount", deletedCount))
	h.RespondJSON(w, http.StatusOK, CleanRevokedTokensResponse{
		Message:      "token cleaning completed successfully",
		DeletedCount: deletedCount,
	})
}
