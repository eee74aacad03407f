package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	mu       sync.Mutex
	kind     LockKind
	inFlight int
	maxSeen  int
}

func (b *recordingBackend) enter() {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > b.maxSeen {
		b.maxSeen = b.inFlight
	}
	b.mu.Unlock()
}

func (b *recordingBackend) leave() {
	b.mu.Lock()
	b.inFlight--
	b.mu.Unlock()
}

func (b *recordingBackend) Store(ctx context.Context, msg Message) (Message, error) {
	b.enter()
	defer b.leave()
	return msg, nil
}
func (b *recordingBackend) Load(ctx context.Context, addressees []string, now uint64) ([]Message, error) {
	b.enter()
	defer b.leave()
	return nil, nil
}
func (b *recordingBackend) LoadSent(ctx context.Context, user string, now uint64) ([]Message, error) {
	b.enter()
	defer b.leave()
	return nil, nil
}
func (b *recordingBackend) LoadByUID(ctx context.Context, uid uint64) (Message, bool, error) {
	b.enter()
	defer b.leave()
	return Message{}, false, nil
}
func (b *recordingBackend) RequiredLockKind() LockKind { return b.kind }
func (b *recordingBackend) Close() error               { return nil }

// TestWrapperSerializesSpinlockDeclaringBackend exercises Open Question 1:
// the same SpinLock instance must guard every method, so concurrent calls
// against a spinlock-declaring backend never overlap.
func TestWrapperSerializesSpinlockDeclaringBackend(t *testing.T) {
	backend := &recordingBackend{kind: LockSpin}
	w := NewWrapper(backend)

	var wg sync.WaitGroup
	ctx := context.Background()
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Store(ctx, Message{})
		}()
	}
	wg.Wait()

	require.Equal(t, 1, backend.maxSeen, "spinlock-declaring backend must never see concurrent calls")
}

func TestWrapperLeavesLockNoneBackendConcurrent(t *testing.T) {
	backend := &recordingBackend{kind: LockNone}
	w := NewWrapper(backend)

	var wg sync.WaitGroup
	ctx := context.Background()
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Store(ctx, Message{})
		}()
	}
	wg.Wait()

	require.GreaterOrEqual(t, backend.maxSeen, 1, "LockNone backend must still observe calls go through")
}
