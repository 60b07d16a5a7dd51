package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/grmr/account-service/internal/models"
)

// actionHistoryRepository is the append-only audit log store.
// Entries are never updated or deleted.
type actionHistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewActionHistoryRepository creates a new action history repository
func NewActionHistoryRepository(db *sql.DB) *actionHistoryRepository {
	return &actionHistoryRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create appends an entry. The timestamp is the server time of the append.
func (r *actionHistoryRepository) Create(ctx context.Context, entry *models.ActionHistory) error {
	query := `
		INSERT INTO action_history (actor_id, actor_label, action, target_type, target_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	entry.Timestamp = r.now()
	targetID := sql.NullString{String: entry.TargetID, Valid: entry.TargetID != ""}

	result, err := r.db.ExecContext(ctx, query,
		entry.ActorID, entry.ActorLabel, entry.Action, entry.TargetType, targetID, entry.Details, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create action history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// GetAll retrieves a page of entries matching filter, newest first, with the
// current identity of each actor joined in. It also returns the total number of
// matching entries.
func (r *actionHistoryRepository) GetAll(ctx context.Context, filter models.ActionHistoryFilter, page, count int) ([]models.ActionHistoryItem, int, error) {
	var whereConditions []string
	var args []any

	if filter.ActorID != "" {
		whereConditions = append(whereConditions, "h.actor_id = ?")
		args = append(args, filter.ActorID)
	}

	if filter.Action != "" {
		whereConditions = append(whereConditions, "h.action = ?")
		args = append(args, filter.Action)
	}

	if filter.From != nil {
		whereConditions = append(whereConditions, "h.created_at >= ?")
		args = append(args, *filter.From)
	}

	if filter.To != nil {
		whereConditions = append(whereConditions, "h.created_at <= ?")
		args = append(args, *filter.To)
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM action_history h %s`, whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count action history: %w", err)
	}

	offset := (page - 1) * count

	query := fmt.Sprintf(`
		SELECT h.id, h.actor_id, h.actor_label, h.action, h.target_type, h.target_id, h.details, h.created_at,
			u.id, u.name, u.email
		FROM action_history h
		LEFT JOIN users u ON u.id = h.actor_id
		%s
		ORDER BY h.created_at DESC, h.id DESC
		LIMIT ? OFFSET ?
	`, whereClause)

	rows, err := r.db.QueryContext(ctx, query, append(args, count, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query action history: %w", err)
	}
	defer rows.Close()

	items := []models.ActionHistoryItem{}
	for rows.Next() {
		var item models.ActionHistoryItem
		var targetID, actorID, actorName, actorEmail sql.NullString
		err := rows.Scan(
			&item.ID,
			&item.ActorID,
			&item.ActorLabel,
			&item.Action,
			&item.TargetType,
			&targetID,
			&item.Details,
			&item.Timestamp,
			&actorID,
			&actorName,
			&actorEmail,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan action history entry: %w", err)
		}

		item.TargetID = targetID.String
		if actorID.Valid {
			item.Actor = &models.ActorSummary{
				ID:    actorID.String,
				Name:  actorName.String,
				Email: actorEmail.String,
			}
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, total, nil
}
