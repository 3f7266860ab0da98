package shared

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		debug bool
		want  log.Level
	}{
		{"warn", false, log.WarnLevel},
		{"INFO", false, log.InfoLevel},
		{"error", true, log.DebugLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.level, tt.debug)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.level)
	}

	_, err := ParseLevel("loud", false)
	assert.Error(t, err)
}

func TestNewLoggerFiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, log.WarnLevel)
	logger.Info("hidden")
	logger.Warn("shown", "balance", 100)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "balance=100")
}
