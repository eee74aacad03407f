package group

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandGroupLoginReturnsItself(t *testing.T) {
	e, err := New(8)
	require.NoError(t, err)

	require.Equal(t, []string{"@x"}, e.Expand("@x"))
}

// TestExpandUnknownUserStillReturnsLoginAndBroadcast is spec.md property 10:
// OS lookup errors are swallowed, but the caller always gets at least
// {login, "#all"}.
func TestExpandUnknownUserStillReturnsLoginAndBroadcast(t *testing.T) {
	e, err := New(8)
	require.NoError(t, err)

	result := e.Expand("definitely-not-a-real-unix-user-12345")
	require.Contains(t, result, "definitely-not-a-real-unix-user-12345")
	require.Contains(t, result, Broadcast)
}

func TestExpandCachesResult(t *testing.T) {
	e, err := New(8)
	require.NoError(t, err)

	first := e.Expand("some-user")
	second := e.Expand("some-user")
	require.Equal(t, first, second)
}
