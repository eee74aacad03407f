package storage

import (
	"context"
	"sync"

	"github.com/chatrelay/chat-relay/internal/concurrent/lock"
)

// Wrapper owns a Backend and interposes the lock discipline it declares
// around every call: none are taken for LockNone, a lock.SpinLock for
// LockSpin, a sync.Mutex for LockMutex. The same lock instance guards
// every method, so Acquire and Release are always the same object — the
// fix for REDESIGN FLAG / Open Question 1, where a copy-paste bug could
// previously pair one back-end's spinlock acquire with another's release.
type Wrapper struct {
	backend Backend
	kind    LockKind
	spin    lock.SpinLock
	mu      sync.Mutex
}

// NewWrapper wraps backend, reading its declared lock kind once at
// construction.
func NewWrapper(backend Backend) *Wrapper {
	return &Wrapper{backend: backend, kind: backend.RequiredLockKind()}
}

func (w *Wrapper) lockFor() func() {
	switch w.kind {
	case LockSpin:
		w.spin.Lock()
		return w.spin.Unlock
	case LockMutex:
		w.mu.Lock()
		return w.mu.Unlock
	default:
		return func() {}
	}
}

// Store interposes the declared lock discipline around backend.Store.
func (w *Wrapper) Store(ctx context.Context, msg Message) (Message, error) {
	unlock := w.lockFor()
	defer unlock()
	return w.backend.Store(ctx, msg)
}

// Load interposes the declared lock discipline around backend.Load.
func (w *Wrapper) Load(ctx context.Context, addressees []string, now uint64) ([]Message, error) {
	unlock := w.lockFor()
	defer unlock()
	return w.backend.Load(ctx, addressees, now)
}

// LoadSent interposes the declared lock discipline around backend.LoadSent.
func (w *Wrapper) LoadSent(ctx context.Context, user string, now uint64) ([]Message, error) {
	unlock := w.lockFor()
	defer unlock()
	return w.backend.LoadSent(ctx, user, now)
}

// LoadByUID interposes the declared lock discipline around
// backend.LoadByUID.
func (w *Wrapper) LoadByUID(ctx context.Context, uid uint64) (Message, bool, error) {
	unlock := w.lockFor()
	defer unlock()
	return w.backend.LoadByUID(ctx, uid)
}

// Close tears down the wrapped back-end. The wrapper owns the back-end's
// lifetime per spec.md §4.P.
func (w *Wrapper) Close() error {
	unlock := w.lockFor()
	defer unlock()
	return w.backend.Close()
}
