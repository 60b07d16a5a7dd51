package services

import (
	"context"
	"time"

	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
	"go.uber.org/zap"
)

// recordTimeout bounds an audit insert once it is detached from the request
const recordTimeout = 5 * time.Second

// ActionHistoryRepository is the interface that wraps methods for ActionHistory table data access
type ActionHistoryRepository interface {
	// Method Create appends an entry to the action history.
	//
	// "entry" parameter is the entry to append; its ID and Timestamp are set on success.
	//
	// If some error occurs during insert, the error will be returned.
	Create(ctx context.Context, entry *models.ActionHistory) error
	// Method GetAll retrieves a page of entries matching the filter, newest first.
	//
	// "filter" parameter narrows the result, zero values disable a criterion.
	// "page" and "count" parameters select the page.
	//
	// Returns the entries of the page and the total number of matching entries.
	GetAll(ctx context.Context, filter models.ActionHistoryFilter, page, count int) ([]models.ActionHistoryItem, int, error)
}

// ActionRecorder appends audit entries without failing the caller
type ActionRecorder interface {
	Record(ctx context.Context, entry *models.ActionHistory)
}

// Auditor writes audit entries and swallows store failures after logging them
type Auditor struct {
	repo   ActionHistoryRepository
	logger *zap.Logger
}

// NewAuditor creates a new auditor
func NewAuditor(repo ActionHistoryRepository, logger *zap.Logger) *Auditor {
	return &Auditor{
		repo:   repo,
		logger: logger,
	}
}

// Record appends entry. A failed append is logged and never reaches the caller.
// The insert outlives the request: a client disconnect does not cancel it.
func (a *Auditor) Record(ctx context.Context, entry *models.ActionHistory) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := a.repo.Create(ctx, entry); err != nil {
		a.logger.Error("failed to record action history",
			zap.String("action", string(entry.Action)),
			zap.String("actorId", entry.ActorID),
			zap.String("targetType", string(entry.TargetType)),
			zap.Error(err),
		)
	}
}

// callerEntry builds an audit entry attributed to the authenticated caller
func callerEntry(caller *service.Claims, action models.ActionKind, target models.TargetType, targetID, details string) *models.ActionHistory {
	return &models.ActionHistory{
		ActorID:    caller.UserID(),
		ActorLabel: caller.Email,
		Action:     action,
		TargetType: target,
		TargetID:   targetID,
		Details:    details,
	}
}

// isAdmin reports whether the caller is an authenticated administrator
func isAdmin(caller *service.Claims) bool {
	return caller != nil && caller.Role == models.RoleAdmin
}
