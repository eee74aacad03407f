package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Building an actual .so to load is outside what a unit test can portably
// do; this only exercises the failure path when the plugin file does not
// exist, which is the overwhelmingly common misconfiguration spec.md §6
// calls fatal at startup.
func TestLoadMissingPluginReturnsConfigError(t *testing.T) {
	_, err := Load("/nonexistent/backend.so", "/nonexistent/backend.ini")
	require.Error(t, err)
}
