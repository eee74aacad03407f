// Package event implements the manual- and auto-reset rendezvous events
// from spec.md §4.E: a signalled flag plus a condition variable, shared
// across copies by a refcounted body so waiter and signaller lifetimes can
// be decoupled.
package event

import (
	"sync"
	"time"

	"github.com/chatrelay/chat-relay/internal/concurrent/cond"
	"github.com/chatrelay/chat-relay/internal/concurrent/handle"
)

type body struct {
	mu        sync.Mutex
	cv        *cond.Cond
	signalled bool
	auto      bool
}

// Event is a handle onto a shared signal body. Copies (via Ref) observe the
// same signal — exactly the "shared across holders by refcounted handle"
// requirement in spec.md §3.
type Event struct {
	h *handle.Handle[body]
}

func newEvent(auto bool) Event {
	b := &body{auto: auto}
	b.cv = cond.New(&b.mu)
	return Event{h: handle.New(b)}
}

// NewManual returns a manual-reset event: Signal wakes every waiter and the
// flag stays set until Reset is called.
func NewManual() Event { return newEvent(false) }

// NewAuto returns an auto-reset event: Signal wakes exactly one waiter,
// which atomically clears the flag as part of waking.
func NewAuto() Event { return newEvent(true) }

// Ref returns a new handle sharing the same underlying signal; the
// underlying body is destroyed only once every handle (original and refs)
// has been Released.
func (e Event) Ref() Event {
	e.h.Ref()
	return e
}

// Release drops this handle's reference. The underlying body is reclaimed
// once the last handle releases.
func (e Event) Release() { e.h.Release() }

// Signal sets the flag. Manual events broadcast every waiter; auto events
// wake exactly one. Signalling an already-signalled manual event is a
// no-op.
func (e Event) Signal() {
	b := e.h.Body()
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.auto {
		b.signalled = true
		b.cv.Signal()
		return
	}
	if b.signalled {
		return
	}
	b.signalled = true
	b.cv.Broadcast()
}

// Reset clears the flag. Only meaningful for manual events — auto events
// clear themselves on wake.
func (e Event) Reset() {
	b := e.h.Body()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signalled = false
}

// Wait blocks until signalled or deadline, returning true iff signalled in
// time. A zero deadline waits indefinitely. An auto event that wakes this
// call atomically clears the flag before returning.
func (e Event) Wait(deadline time.Time) bool {
	b := e.h.Body()
	b.mu.Lock()
	defer b.mu.Unlock()

	ok := b.cv.WaitPredicate(deadline, func() bool { return b.signalled })
	if ok && b.auto {
		b.signalled = false
	}
	return ok
}

// IsSignalled probes the flag without blocking.
func (e Event) IsSignalled() bool {
	b := e.h.Body()
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.signalled
}
