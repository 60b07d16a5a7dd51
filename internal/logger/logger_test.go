package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	original := Logger
	t.Cleanup(func() { Logger = original })

	tests := []struct {
		name          string
		level         string
		expectedLevel zapcore.Level
		expectedError bool
	}{
		{name: "debug", level: "debug", expectedLevel: zapcore.DebugLevel},
		{name: "info", level: "info", expectedLevel: zapcore.InfoLevel},
		{name: "warn", level: "warn", expectedLevel: zapcore.WarnLevel},
		{name: "error", level: "error", expectedLevel: zapcore.ErrorLevel},
		{name: "unknown level", level: "verbose", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = zap.NewNop()

			err := Init(tt.level)

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, Logger.Core().Enabled(tt.expectedLevel))
			if tt.expectedLevel > zapcore.DebugLevel {
				assert.False(t, Logger.Core().Enabled(tt.expectedLevel-1))
			}
		})
	}
}

func TestSync_NopLogger(t *testing.T) {
	original := Logger
	t.Cleanup(func() { Logger = original })
	Logger = zap.NewNop()

	assert.NotPanics(t, Sync)
}
