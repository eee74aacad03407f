package diag

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWritePidFileWritesDecimalPidWithNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat-relay.pid")

	cleanup, err := WritePidFile(path)
	require.NoError(t, err)
	defer cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "\n"))

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), pid)
}

func TestWritePidFileCleanupRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat-relay.pid")
	cleanup, err := WritePidFile(path)
	require.NoError(t, err)

	cleanup()
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestWritePidFileEmptyPathIsNoop(t *testing.T) {
	cleanup, err := WritePidFile("")
	require.NoError(t, err)
	require.NotPanics(t, cleanup)
}
