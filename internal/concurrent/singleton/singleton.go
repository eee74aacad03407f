// Package singleton implements the lazy, thread-safe, reentrancy-guarded
// process singleton machinery from spec.md §4.I. Construction is serialized
// by the box's mutex and condition variable, with the constructing
// goroutine's id recorded as the owner: a singleton whose
// constructor tries to construct itself again (same goroutine, before the
// first construction finished) is a fatal error, not a deadlock.
package singleton

import (
	"fmt"
	"sync"
	"time"

	"github.com/chatrelay/chat-relay/internal/concurrent/atexit"
	"github.com/chatrelay/chat-relay/internal/concurrent/cond"
	"github.com/chatrelay/chat-relay/internal/concurrent/gid"
)

// Box holds one lazily-constructed singleton instance of T.
type Box[T any] struct {
	mu           sync.Mutex
	cv           *cond.Cond
	cvOnce       sync.Once
	constructed  bool
	constructing bool
	ownerGID     uint64
	value        *T
}

func (b *Box[T]) cond() *cond.Cond {
	b.cvOnce.Do(func() { b.cv = cond.New(&b.mu) })
	return b.cv
}

// Get returns the singleton instance, constructing it with newFn on first
// call. newFn runs with the box unlocked except for the reentrancy guard,
// so it may safely call Get on unrelated boxes. If newFn (directly or
// transitively, on the same goroutine) calls Get on the same Box again
// before construction finishes, Get panics — that reentry is the fatal
// contract violation spec.md §4.I calls out.
//
// After construction, the destructor (if non-nil) is registered with
// atexit.Default() at the given priority.
func (b *Box[T]) Get(newFn func() T, destroy func(*T), priority int) *T {
	g := gid.Current()

	b.mu.Lock()
	if b.constructed {
		v := b.value
		b.mu.Unlock()
		return v
	}
	if b.constructing && b.ownerGID == g {
		b.mu.Unlock()
		panic(fmt.Sprintf("singleton: reentrant construction from goroutine %d", g))
	}
	for b.constructing {
		b.cond().Wait(time.Time{})
	}
	if b.constructed {
		v := b.value
		b.mu.Unlock()
		return v
	}
	b.constructing = true
	b.ownerGID = g
	b.mu.Unlock()

	v := newFn()

	b.mu.Lock()
	b.value = &v
	b.constructed = true
	b.constructing = false
	b.cond().Broadcast()
	b.mu.Unlock()

	if destroy != nil {
		atexit.Default().Register(func() { destroy(b.value) }, priority)
	}
	return b.value
}

// Default returns a lazily-constructed, default-priority shared instance of
// T, mirroring spec.md §4.I's default[T]() variant. Use Get directly when a
// custom constructor or priority is needed.
func Default[T any](box *Box[T], newFn func() T) *T {
	return box.Get(newFn, nil, atexit.DefaultPriority)
}
