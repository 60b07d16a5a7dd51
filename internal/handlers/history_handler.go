package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// HistoryService is the interface that wraps methods for action history queries.
type HistoryService interface {
	// Method GetHistory returns a page of the action history matching filter, newest first.
	//
	// "page" parameter is 1-based, "count" parameter is the page size.
	GetHistory(ctx context.Context, caller *service.Claims, filter models.ActionHistoryFilter, page, count int) (*models.ActionHistoryPage, error)
	// Method GetAdminHistory returns a page of the actions performed by the administrator with the given id.
	GetAdminHistory(ctx context.Context, caller *service.Claims, adminID string, page, count int) (*models.ActionHistoryPage, error)
}

// HistoryHandler handles action history HTTP requests
type HistoryHandler struct {
	BaseHandler
	historyService HistoryService
	guard          Guard
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(historyService HistoryService, guard Guard, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		historyService: historyService,
		guard:          guard,
	}
}

// RegisterRoutes registers all history handler routes
func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Authenticate, h.guard.RequireRole(models.RoleAdmin))
		r.Get("/admin/action-history", h.GetHistory)
		r.Get("/admin/action-history/{adminId}", h.GetAdminHistory)
	})
}

// GetHistory handles GET /admin/action-history
// @Summary Get action history
// @Description Returns the audit log newest first. Dates accept RFC3339 or YYYY-MM-DD; a plain endDate covers the whole day.
// @Tags history
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param actorId query string false "Filter by actor id"
// @Param adminId query string false "Alias of actorId"
// @Param action query string false "Filter by action kind"
// @Param startDate query string false "Only entries at or after this date"
// @Param endDate query string false "Only entries at or before this date"
// @Success 200 {object} models.ActionHistoryPage
// @Failure 400 {object} ErrorResponse "Invalid query parameter"
// @Failure 401 {object} ErrorResponse "Missing or invalid token"
// @Failure 403 {object} ErrorResponse "Not an administrator"
// @Security BearerAuth
// @Router /admin/action-history [get]
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	page, count, err := parsePagination(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := r.URL.Query()
	filter := models.ActionHistoryFilter{
		ActorID: query.Get("actorId"),
		Action:  models.ActionKind(query.Get("action")),
	}
	if filter.ActorID == "" {
		filter.ActorID = query.Get("adminId")
	}
	if filter.From, err = parseDate(query.Get("startDate"), false); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid startDate")
		return
	}
	if filter.To, err = parseDate(query.Get("endDate"), true); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid endDate")
		return
	}

	result, err := h.historyService.GetHistory(r.Context(), caller(r), filter, page, count)
	if err != nil {
		h.RespondServiceError(w, err, "get action history")
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// GetAdminHistory handles GET /admin/action-history/{adminId}
// @Summary Get the history of an administrator
// @Description Returns the actions performed by one administrator, newest first
// @Tags history
// @Produce json
// @Param adminId path string true "Administrator ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.ActionHistoryPage
// @Failure 400 {object} ErrorResponse "Invalid query parameter"
// @Failure 401 {object} ErrorResponse "Missing or invalid token"
// @Failure 403 {object} ErrorResponse "Not an administrator"
// @Security BearerAuth
// @Router /admin/action-history/{adminId} [get]
func (h *HistoryHandler) GetAdminHistory(w http.ResponseWriter, r *http.Request) {
	page, count, err := parsePagination(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.historyService.GetAdminHistory(r.Context(), caller(r), chi.URLParam(r, "adminId"), page, count)
	if err != nil {
		h.RespondServiceError(w, err, "get admin action history")
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// parsePagination reads the page and limit query parameters. Missing values are returned as 0.
func parsePagination(r *http.Request) (int, int, error) {
	query := r.URL.Query()

	var page, count int
	if s := query.Get("page"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return 0, 0, fmt.Errorf("invalid page parameter")
		}
		page = v
	}
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return 0, 0, fmt.Errorf("invalid limit parameter")
		}
		count = v
	}

	return page, count, nil
}

// parseDate accepts RFC3339 or a plain date. With endOfDay set a plain date
// is moved to the last instant of that day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
