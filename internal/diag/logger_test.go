package diag

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chat-relay/config"
)

func TestNewLoggerFallsBackToStderrWithoutLogFile(t *testing.T) {
	logger := NewLogger(config.Logger{})
	require.NotNil(t, logger)
}

func TestMaxSizeMBRoundsUpPartialMegabytes(t *testing.T) {
	require.Equal(t, 0, maxSizeMB(0))
	require.Equal(t, 1, maxSizeMB(1))
	require.Equal(t, 1, maxSizeMB(1<<20))
	require.Equal(t, 2, maxSizeMB(1<<20+1))
}

func TestNewLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat-relay.log")
	logger := NewLogger(config.Logger{LogFile: path})
	logger.Info("hello", "key", "value")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "\"msg\":\"hello\""))
}
