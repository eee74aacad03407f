// Package future implements the single-assignment Future/Promise pair from
// spec.md §4.K: a value or error cell with continuations (Subscribe, Apply,
// IgnoreResult, WithValue) and the WaitAll/WaitAny/WaitExceptionOrAll
// combinators. The state machine — NotReady -> {ValueSet, ExceptionSet},
// ValueSet -> {ValueRead, ValueMoved} — and its ordering guarantees (state
// store happens-before ready-event signal happens-before callback dispatch)
// are exactly spec.md §3/§4.K's, built over a mutex and a manual-reset
// event.Event rather than a bare channel: a channel-of-one cannot express
// "read any number of times vs. move exactly once" or "subscribe fires
// exactly once, inline if already terminal".
package future

import (
	"fmt"
	"sync"
	"time"

	"github.com/chatrelay/chat-relay/internal/concurrent/errs"
	"github.com/chatrelay/chat-relay/internal/concurrent/event"
)

type state int32

const (
	stNotReady state = iota
	stValueSet
	stValueMoved
	stValueRead
	stExceptionSet
)

type cell[T any] struct {
	mu        sync.Mutex
	st        state
	value     T
	err       error
	ready     event.Event
	callbacks []func()
}

func newCell[T any]() *cell[T] {
	return &cell[T]{ready: event.NewManual()}
}

// Promise is the write side of a Future[T].
type Promise[T any] struct{ c *cell[T] }

// Future is the read side of a Promise[T]. The zero value is invalid; use
// NewPromise, MakeFuture or MakeErrorFuture to obtain one.
type Future[T any] struct{ c *cell[T] }

// NewPromise returns a fresh promise/future pair sharing one state cell.
func NewPromise[T any]() (Promise[T], Future[T]) {
	c := newCell[T]()
	return Promise[T]{c}, Future[T]{c}
}

// Future returns the read-side view of p.
func (p Promise[T]) Future() Future[T] { return Future[T]{p.c} }

// MakeFuture returns an already-satisfied future.
func MakeFuture[T any](v T) Future[T] {
	p, f := NewPromise[T]()
	p.SetValue(v)
	return f
}

// MakeErrorFuture returns an already-failed future.
func MakeErrorFuture[T any](err error) Future[T] {
	p, f := NewPromise[T]()
	p.SetException(err)
	return f
}

// TrySetValue stores v and returns false instead of panicking if the cell
// was already terminal.
func (p Promise[T]) TrySetValue(v T) bool {
	c := p.c
	c.mu.Lock()
	if c.st != stNotReady {
		c.mu.Unlock()
		return false
	}
	c.value = v
	c.st = stValueSet
	cbs := c.callbacks
	c.callbacks = nil
	c.mu.Unlock()

	c.ready.Signal()
	for _, cb := range cbs {
		cb()
	}
	return true
}

// SetValue stores v. A second call (after SetValue/SetException already
// succeeded) is a fatal misuse, per spec.md §4.K.
func (p Promise[T]) SetValue(v T) {
	if !p.TrySetValue(v) {
		panic(errs.NewFutureError(errs.ValueAlreadySet))
	}
}

// TrySetException stores err as the terminal exception, returning false if
// the cell was already terminal.
func (p Promise[T]) TrySetException(err error) bool {
	c := p.c
	c.mu.Lock()
	if c.st != stNotReady {
		c.mu.Unlock()
		return false
	}
	c.err = err
	c.st = stExceptionSet
	cbs := c.callbacks
	c.callbacks = nil
	c.mu.Unlock()

	c.ready.Signal()
	for _, cb := range cbs {
		cb()
	}
	return true
}

// SetException stores err, terminating the cell in EXCEPTION_SET. Fatal
// misuse if already terminal.
func (p Promise[T]) SetException(err error) {
	if !p.TrySetException(err) {
		panic(errs.NewFutureError(errs.ValueAlreadySet))
	}
}

// IsValid reports whether f was obtained from a real promise (as opposed
// to the zero value).
func (f Future[T]) IsValid() bool { return f.c != nil }

// Identity returns the opaque backing-cell identity: two Future handles
// onto the same promise compare equal.
func (f Future[T]) Identity() any { return f.c }

// Equal reports whether f and other share the same backing state.
func (f Future[T]) Equal(other Future[T]) bool { return f.c == other.c }

func (f Future[T]) waitReady(timeout time.Duration) bool {
	if timeout <= 0 {
		return f.c.ready.IsSignalled()
	}
	return f.c.ready.Wait(time.Now().Add(timeout))
}

// Wait blocks until terminal or timeout, without consuming the value.
// timeout<=0 performs a non-blocking probe.
func (f Future[T]) Wait(timeout time.Duration) bool { return f.waitReady(timeout) }

// HasValue probes, without blocking, whether the cell holds a readable
// value (VALUE_SET or VALUE_READ).
func (f Future[T]) HasValue() bool {
	c := f.c
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st == stValueSet || c.st == stValueRead
}

// HasException probes, without blocking, whether the cell is EXCEPTION_SET.
func (f Future[T]) HasException() bool {
	c := f.c
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st == stExceptionSet
}

// TryRethrow returns the stored exception without blocking, or nil.
func (f Future[T]) TryRethrow() error {
	c := f.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st == stExceptionSet {
		return c.err
	}
	return nil
}

// GetValue returns the value, waiting up to timeout if not yet ready.
// timeout<=0 fails immediately with ValueNotSet instead of blocking.
func (f Future[T]) GetValue(timeout time.Duration) (T, error) {
	var zero T
	if !f.waitReady(timeout) {
		if timeout <= 0 {
			return zero, errs.NewFutureError(errs.ValueNotSet)
		}
		return zero, errs.NewFutureError(errs.WaitTimeout)
	}

	c := f.c
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.st {
	case stExceptionSet:
		return zero, c.err
	case stValueMoved:
		return zero, errs.NewFutureError(errs.ValueWasMoved)
	case stValueSet, stValueRead:
		c.st = stValueRead
		return c.value, nil
	default:
		return zero, errs.NewFutureError(errs.ValueNotSet)
	}
}

// ExtractValue moves the value out. After a successful extract the cell is
// VALUE_MOVED and every further GetValue/ExtractValue fails with
// ValueWasMoved.
func (f Future[T]) ExtractValue(timeout time.Duration) (T, error) {
	var zero T
	if !f.waitReady(timeout) {
		if timeout <= 0 {
			return zero, errs.NewFutureError(errs.ValueNotSet)
		}
		return zero, errs.NewFutureError(errs.WaitTimeout)
	}

	c := f.c
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.st {
	case stExceptionSet:
		return zero, c.err
	case stValueMoved:
		return zero, errs.NewFutureError(errs.ValueWasMoved)
	case stValueSet, stValueRead:
		v := c.value
		c.value = zero
		c.st = stValueMoved
		return v, nil
	default:
		return zero, errs.NewFutureError(errs.ValueNotSet)
	}
}

// Subscribe registers cb to run exactly once: inline on the caller if the
// future is already terminal, otherwise on whichever goroutine transitions
// the state.
func (f Future[T]) Subscribe(cb func(Future[T])) {
	c := f.c
	c.mu.Lock()
	if c.st != stNotReady {
		c.mu.Unlock()
		cb(f)
		return
	}
	c.callbacks = append(c.callbacks, func() { cb(f) })
	c.mu.Unlock()
}

func recoverToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("future: panic in continuation: %v", r)
}
