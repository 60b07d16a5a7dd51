package services

import (
	"context"
	"fmt"

	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/models"
)

// Page size bounds of history queries
const (
	DefaultHistoryPageSize = 10
	MaxHistoryPageSize     = 100
)

// historyService implements audit log queries
type historyService struct {
	historyRepo ActionHistoryRepository
	auditor     ActionRecorder
}

// NewHistoryService creates a new history service
func NewHistoryService(historyRepo ActionHistoryRepository, auditor ActionRecorder) *historyService {
	return &historyService{
		historyRepo: historyRepo,
		auditor:     auditor,
	}
}

// GetHistory retrieves a page of the action history matching filter, newest first.
// The consultation itself is recorded after the query.
func (s *historyService) GetHistory(ctx context.Context, caller *service.Claims, filter models.ActionHistoryFilter, page, count int) (*models.ActionHistoryPage, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, fmt.Errorf("%w: startDate is after endDate", ErrValidation)
	}

	result, err := s.query(ctx, filter, page, count)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, callerEntry(caller, models.ActionConsultation, models.TargetHistory, "",
		fmt.Sprintf("consultation of the action history (%d actions found, page %d)",
			result.Pagination.TotalItems, result.Pagination.CurrentPage)))

	return result, nil
}

// GetAdminHistory retrieves a page of the actions performed by adminID, newest first
func (s *historyService) GetAdminHistory(ctx context.Context, caller *service.Claims, adminID string, page, count int) (*models.ActionHistoryPage, error) {
	if adminID == "" {
		return nil, fmt.Errorf("%w: admin id is required", ErrValidation)
	}

	result, err := s.query(ctx, models.ActionHistoryFilter{ActorID: adminID}, page, count)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, callerEntry(caller, models.ActionConsultation, models.TargetAdminHistory, adminID,
		fmt.Sprintf("consultation of the history of admin %s (%d actions found, page %d)",
			adminID, result.Pagination.TotalItems, result.Pagination.CurrentPage)))

	return result, nil
}

func (s *historyService) query(ctx context.Context, filter models.ActionHistoryFilter, page, count int) (*models.ActionHistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = DefaultHistoryPageSize
	}
	if count > MaxHistoryPageSize {
		count = MaxHistoryPageSize
	}

	items, total, err := s.historyRepo.GetAll(ctx, filter, page, count)
	if err != nil {
		return nil, err
	}

	return &models.ActionHistoryPage{
		History: items,
		Pagination: models.Pagination{
			CurrentPage:  page,
			TotalPages:   (total + count - 1) / count,
			TotalItems:   total,
			ItemsPerPage: count,
		},
	}, nil
}
