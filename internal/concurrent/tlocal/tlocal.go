// Package tlocal implements per-goroutine value cells with registered
// destructors, per spec.md §4.G. Go has no native thread-local storage and
// no hook for arbitrary goroutine exit, so this is keyed by the goroutine
// id from internal/concurrent/gid (the raw id, not hashed), and a goroutine
// that wants its cells torn down must call TeardownCurrent itself. The
// workers in internal/concurrent/pool do not call it, so cells created on a
// pool worker are not destroyed when that worker exits. That divergence
// from automatic OS-thread-exit semantics is recorded in SPEC_FULL.md §6.
package tlocal

import (
	"sync"

	"github.com/chatrelay/chat-relay/internal/concurrent/gid"
)

// key identifies one Cell process-wide.
type key uint64

var nextKey struct {
	mu  sync.Mutex
	cur key
}

func newKey() key {
	nextKey.mu.Lock()
	defer nextKey.mu.Unlock()
	nextKey.cur++
	return nextKey.cur
}

type entry struct {
	value any
	destroy func(any)
}

var registry struct {
	mu    sync.Mutex
	table map[uint64]map[key]*entry // goroutine id -> key -> entry
}

func init() {
	registry.table = make(map[uint64]map[key]*entry)
}

// Cell is a lazily-constructed, per-goroutine value of type T.
type Cell[T any] struct {
	k       key
	newFn   func() T
	destroy func(T)
}

// New returns a Cell whose value is constructed with newFn on first access
// from each goroutine. destroy, if non-nil, is called with the goroutine's
// instance when that goroutine calls TeardownCurrent.
func New[T any](newFn func() T, destroy func(T)) *Cell[T] {
	return &Cell[T]{k: newKey(), newFn: newFn, destroy: destroy}
}

// Get returns the calling goroutine's instance, constructing it on first
// access.
func (c *Cell[T]) Get() *T {
	g := gid.Current()

	registry.mu.Lock()
	defer registry.mu.Unlock()

	table, ok := registry.table[g]
	if !ok {
		table = make(map[key]*entry)
		registry.table[g] = table
	}

	e, ok := table[c.k]
	if !ok {
		v := c.newFn()
		e = &entry{value: &v}
		if c.destroy != nil {
			e.destroy = func(a any) { c.destroy(*a.(*T)) }
		}
		table[c.k] = e
	}
	return e.value.(*T)
}

// TeardownCurrent destroys every cell instance registered for the calling
// goroutine, invoking each destructor. Must be called explicitly before a
// worker goroutine exits — see package doc.
func TeardownCurrent() {
	g := gid.Current()

	registry.mu.Lock()
	table, ok := registry.table[g]
	delete(registry.table, g)
	registry.mu.Unlock()

	if !ok {
		return
	}
	for _, e := range table {
		if e.destroy != nil {
			e.destroy(e.value)
		}
	}
}
