package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// mockPurger is a mock implementation of RevokedTokenPurger
type mockPurger struct {
	deleted int
	err     error
	calls   int
	hasCtx  bool
}

func (m *mockPurger) DeleteExpiredRevokedTokens(ctx context.Context) (int, error) {
	m.calls++
	_, m.hasCtx = ctx.Deadline()
	return m.deleted, m.err
}

func TestRevokedTokenPurgeJob_Run(t *testing.T) {
	tests := []struct {
		name          string
		purger        *mockPurger
		expectedLevel zapcore.Level
		expectedLog   string
	}{
		{
			name:          "entries purged",
			purger:        &mockPurger{deleted: 3},
			expectedLevel: zapcore.InfoLevel,
			expectedLog:   "Purged expired revoked tokens",
		},
		{
			name:          "purge failed",
			purger:        &mockPurger{err: errors.New("database error")},
			expectedLevel: zapcore.WarnLevel,
			expectedLog:   "Failed to purge expired revoked tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			job := NewRevokedTokenPurgeJob(tt.purger, zap.New(core))

			job.Run()

			assert.Equal(t, 1, tt.purger.calls)
			assert.True(t, tt.purger.hasCtx)
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.expectedLevel, entry.Level)
			assert.Equal(t, tt.expectedLog, entry.Message)
		})
	}

	t.Run("nothing to purge is silent", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		purger := &mockPurger{}

		NewRevokedTokenPurgeJob(purger, zap.New(core)).Run()

		assert.Equal(t, 1, purger.calls)
		assert.Equal(t, 0, logs.Len())
	})
}

func TestStart(t *testing.T) {
	job := NewRevokedTokenPurgeJob(&mockPurger{}, zap.NewNop())

	t.Run("valid schedule", func(t *testing.T) {
		c, err := Start("@hourly", job)

		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Len(t, c.Entries(), 1)
		<-c.Stop().Done()
	})

	t.Run("invalid schedule", func(t *testing.T) {
		c, err := Start("every so often", job)

		require.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "invalid schedule")
	})
}
