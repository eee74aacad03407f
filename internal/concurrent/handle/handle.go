// Package handle implements the refcounted handle from spec.md §4.F: the
// last release destroys the body. The reference count is a counter
// allocated once by New and shared by every Handle derived from it via
// Ref; the body type itself carries no counter field.
package handle

import catomic "github.com/chatrelay/chat-relay/internal/concurrent/atomic"

// Handle is an owning reference to a T. Copies made via Ref share the same
// underlying body and refcount; Release drops one reference, running
// onZero when the count reaches zero.
type Handle[T any] struct {
	body   *T
	rc     *catomic.Uint64
	onZero func(*T)
}

// New wraps body in a Handle with an initial refcount of 1 and no
// destructor. Use NewWithDestructor to run cleanup at zero.
func New[T any](body *T) *Handle[T] {
	rc := &catomic.Uint64{}
	rc.Store(1)
	return &Handle[T]{body: body, rc: rc}
}

// NewWithDestructor is like New but runs onZero(body) when the last handle
// releases.
func NewWithDestructor[T any](body *T, onZero func(*T)) *Handle[T] {
	h := New(body)
	h.onZero = onZero
	return h
}

// Body returns the referenced value. Valid only while the caller holds (or
// is borrowing) a live reference.
func (h *Handle[T]) Body() *T { return h.body }

// Ref increments the refcount and returns a new Handle value sharing the
// same body and counter. The sequentially-consistent fetch-add ensures the
// eventual last Release observes every prior write to the body (spec.md §3).
func (h *Handle[T]) Ref() *Handle[T] {
	h.rc.Add(1)
	return &Handle[T]{body: h.body, rc: h.rc, onZero: h.onZero}
}

// Release drops this reference. When the count reaches zero, onZero (if
// set) runs exactly once.
func (h *Handle[T]) Release() {
	if h.rc.Sub(1) == 0 {
		if h.onZero != nil {
			h.onZero(h.body)
		}
	}
}

// Weak decrements the count without ever running onZero — used to publish
// a non-owning back-reference (e.g. a body pointing at its own handle)
// whose lifetime must not extend the owning chain.
func (h *Handle[T]) Weak() {
	h.rc.Sub(1)
}

// Count returns the current refcount, for diagnostics/tests only.
func (h *Handle[T]) Count() uint64 { return h.rc.Load() }
