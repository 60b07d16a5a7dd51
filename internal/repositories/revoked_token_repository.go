package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/grmr/account-service/internal/models"
)

// revokedTokenRepository stores ids of tokens invalidated at logout
type revokedTokenRepository struct {
	db *sql.DB
}

// NewRevokedTokenRepository creates a new revoked token repository
func NewRevokedTokenRepository(db *sql.DB) *revokedTokenRepository {
	return &revokedTokenRepository{
		db: db,
	}
}

// Create records a revoked token id. Revoking the same id twice is not an error.
func (r *revokedTokenRepository) Create(ctx context.Context, token *models.RevokedToken) error {
	query := `
		INSERT IGNORE INTO revoked_tokens (jti, user_id, expires_at)
		VALUES (?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, token.JTI, token.UserID, token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create revoked token: %w", err)
	}

	return nil
}

// IsRevoked checks if a token id has been revoked
func (r *revokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, jti).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return exists, nil
}

// DeleteExpired deletes revocations of tokens that expired at or before now.
// Those tokens are rejected on their expiry anyway.
func (r *revokedTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at <= ?`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired revoked tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
