package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chat-relay/internal/storage"
)

func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestStoreAssignsIncreasingUID(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	m1, err := b.Store(ctx, storage.Message{Sender: "alice", To: []string{"bob"}, Body: "one"})
	require.NoError(t, err)
	m2, err := b.Store(ctx, storage.Message{Sender: "alice", To: []string{"bob"}, Body: "two"})
	require.NoError(t, err)

	require.True(t, m1.HasUID)
	require.True(t, m2.HasUID)
	require.Greater(t, m2.UID, m1.UID)
}

func TestLoadMatchesAnyAddressee(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	_, err := b.Store(ctx, storage.Message{Sender: "alice", To: []string{"bob", "#all"}, SendTS: 10, Body: "hi"})
	require.NoError(t, err)

	msgs, err := b.Load(ctx, []string{"carol", "#all"}, 20)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, []string{"bob", "#all"}, msgs[0].To)
}

func TestLoadWithholdsFutureDated(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	_, err := b.Store(ctx, storage.Message{Sender: "alice", To: []string{"bob"}, SendTS: 1000, Body: "later"})
	require.NoError(t, err)

	msgs, err := b.Load(ctx, []string{"bob"}, 999)
	require.NoError(t, err)
	require.Empty(t, msgs)

	msgs, err = b.Load(ctx, []string{"bob"}, 1000)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestLoadSentReturnsOwnMessagesOnly(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	_, err := b.Store(ctx, storage.Message{Sender: "alice", To: []string{"bob"}, Body: "a"})
	require.NoError(t, err)
	_, err = b.Store(ctx, storage.Message{Sender: "bob", To: []string{"alice"}, Body: "b"})
	require.NoError(t, err)

	msgs, err := b.LoadSent(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "a", msgs[0].Body)
}

func TestLoadByUIDFindsStoredMessageIgnoringTimestamp(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	stored, err := b.Store(ctx, storage.Message{Sender: "alice", To: []string{"bob"}, SendTS: 1_000_000, Body: "later"})
	require.NoError(t, err)

	found, ok, err := b.LoadByUID(ctx, stored.UID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "later", found.Body)

	_, ok, err = b.LoadByUID(ctx, stored.UID+1000)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRequiredLockKindIsMutex(t *testing.T) {
	b := openTestBackend(t)
	require.Equal(t, storage.LockMutex, b.RequiredLockKind())
}
