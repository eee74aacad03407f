package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chat-relay/internal/storage"
)

type alwaysFailBackend struct{ calls int }

func (b *alwaysFailBackend) Store(ctx context.Context, msg storage.Message) (storage.Message, error) {
	b.calls++
	return storage.Message{}, errors.New("backend: simulated failure")
}
func (b *alwaysFailBackend) Load(ctx context.Context, addressees []string, now uint64) ([]storage.Message, error) {
	return nil, nil
}
func (b *alwaysFailBackend) LoadSent(ctx context.Context, user string, now uint64) ([]storage.Message, error) {
	return nil, nil
}
func (b *alwaysFailBackend) LoadByUID(ctx context.Context, uid uint64) (storage.Message, bool, error) {
	return storage.Message{}, false, nil
}
func (b *alwaysFailBackend) RequiredLockKind() storage.LockKind { return storage.LockNone }
func (b *alwaysFailBackend) Close() error                       { return nil }

func TestBreakerOpensAfterConsecutiveFailuresAndFailsFast(t *testing.T) {
	backend := &alwaysFailBackend{}
	bw := storage.NewBreakerWrapper(storage.NewWrapper(backend), 3, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := bw.Store(context.Background(), storage.Message{Sender: "a"})
		require.Error(t, err)
	}
	require.Equal(t, 3, backend.calls)

	// The breaker is now open: a further call should fail without
	// reaching the back-end.
	_, err := bw.Store(context.Background(), storage.Message{Sender: "a"})
	require.Error(t, err)
	require.Equal(t, 3, backend.calls)
}
