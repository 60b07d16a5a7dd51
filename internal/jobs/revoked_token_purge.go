// Package jobs holds periodic maintenance work run by the service
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const purgeTimeout = 30 * time.Second

// RevokedTokenPurger removes revocation entries whose token has expired
type RevokedTokenPurger interface {
	DeleteExpiredRevokedTokens(ctx context.Context) (int, error)
}

// RevokedTokenPurgeJob deletes expired revoked tokens
type RevokedTokenPurgeJob struct {
	purger RevokedTokenPurger
	logger *zap.Logger
}

// NewRevokedTokenPurgeJob creates a new purge job
func NewRevokedTokenPurgeJob(purger RevokedTokenPurger, logger *zap.Logger) *RevokedTokenPurgeJob {
	return &RevokedTokenPurgeJob{
		purger: purger,
		logger: logger,
	}
}

// Run implements cron.Job
func (j *RevokedTokenPurgeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	deleted, err := j.purger.DeleteExpiredRevokedTokens(ctx)
	if err != nil {
		j.logger.Warn("Failed to purge expired revoked tokens", zap.Error(err))
		return
	}
	if deleted > 0 {
		j.logger.Info("Purged expired revoked tokens", zap.Int("count", deleted))
	}
}

// Start schedules job with a standard cron expression or descriptor (e.g. "@hourly")
// and starts the scheduler. Callers stop it with Stop.
func Start(schedule string, job cron.Job) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
