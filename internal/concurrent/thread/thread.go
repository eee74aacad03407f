// Package thread wraps a goroutine in a named, single-start handle, per
// spec.md §4.L; Join is not limited to one call. Go has no OS thread id to key a name registry
// on, so the registry is keyed by the goroutine id from
// internal/concurrent/gid (the raw id, not hashed) instead — the same substitution tlocal makes for
// thread-local storage.
package thread

import (
	"sync"
	"sync/atomic"

	"github.com/chatrelay/chat-relay/internal/concurrent/errs"
	"github.com/chatrelay/chat-relay/internal/concurrent/gid"
)

type state int32

const (
	stateIdle state = iota
	stateRunning
	stateJoined
)

// Thread is a start-once handle onto a goroutine. A second Join is not
// detected; it returns once the goroutine has finished.
type Thread struct {
	st   atomic.Int32
	wg   sync.WaitGroup
	name string
	fn   func()
}

// New returns an unstarted thread that will run fn once Start is called.
func New(fn func()) *Thread {
	return &Thread{fn: fn}
}

// SetName records a human-readable name for this thread, visible via Name
// and the package-level registry once the thread is running.
func (t *Thread) SetName(name string) { t.name = name }

// Name returns the name last set via SetName, or "" if none was set.
func (t *Thread) Name() string { return t.name }

// Start launches the goroutine. Calling Start twice on the same Thread is
// a fatal misuse.
func (t *Thread) Start() {
	if !t.st.CompareAndSwap(int32(stateIdle), int32(stateRunning)) {
		panic(errs.NewKind(errs.KindThread, "thread: Start called more than once"))
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		id := gid.Current()
		if t.name != "" {
			registerName(id, t.name)
			defer unregisterName(id)
		}
		t.fn()
	}()
}

// Join blocks until the goroutine returns. Calling Join before Start, or
// concurrently from multiple goroutines, is undefined beyond "at least one
// caller unblocks when the thread finishes" — spec.md §4.L does not
// require join-once semantics on the joining side, only on Start.
func (t *Thread) Join() { t.wg.Wait() }

// Detach marks the thread as never going to be joined; it is a thin
// documentation-only alias over not calling Join, since Go goroutines
// cannot be orphaned in the OS-thread sense.
func (t *Thread) Detach() {}

var (
	registryMu sync.Mutex
	registry   = map[uint64]string{}
)

func registerName(id uint64, name string) {
	registryMu.Lock()
	registry[id] = name
	registryMu.Unlock()
}

func unregisterName(id uint64) {
	registryMu.Lock()
	delete(registry, id)
	registryMu.Unlock()
}

// NameOf returns the name registered for the calling goroutine's own
// thread, or "" if the current goroutine was not started via this
// package or never called SetName.
func NameOf() string {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry[gid.Current()]
}
