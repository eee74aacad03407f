package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chat-relay/internal/storage"
)

// requiresDSN skips the test unless CHATRELAY_TEST_POSTGRES_DSN points at a
// real server — there is no in-process Postgres, unlike sqlite's :memory:.
func requiresDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("CHATRELAY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set CHATRELAY_TEST_POSTGRES_DSN to run postgres backend tests")
	}
	return dsn
}

func TestStoreAndLoadRoundTrip(t *testing.T) {
	dsn := requiresDSN(t)
	ctx := context.Background()

	b, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer b.Close()

	stored, err := b.Store(ctx, storage.Message{Sender: "alice", To: []string{"bob"}, SendTS: 1, Body: "hi"})
	require.NoError(t, err)
	require.True(t, stored.HasUID)

	msgs, err := b.Load(ctx, []string{"bob"}, 2)
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
}

func TestLoadByUIDFindsStoredMessage(t *testing.T) {
	dsn := requiresDSN(t)
	ctx := context.Background()

	b, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer b.Close()

	stored, err := b.Store(ctx, storage.Message{Sender: "alice", To: []string{"bob"}, SendTS: 1_000_000, Body: "later"})
	require.NoError(t, err)

	found, ok, err := b.LoadByUID(ctx, stored.UID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "later", found.Body)
}

func TestRequiredLockKindIsNone(t *testing.T) {
	dsn := requiresDSN(t)
	b, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	defer b.Close()
	require.Equal(t, storage.LockNone, b.RequiredLockKind())
}
