// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		logger, err := New(tt.level, "json")
		require.NoError(t, err, "level %q", tt.level)

		core := logger.Core()
		assert.True(t, core.Enabled(tt.want), "level %q should enable %v", tt.level, tt.want)
		if tt.want > zapcore.DebugLevel {
			assert.False(t, core.Enabled(tt.want-1), "level %q should not enable %v", tt.level, tt.want-1)
		}
	}
}

func TestNewConsoleFormat(t *testing.T) {
	logger, err := New("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
