// Package atomic wraps sync/atomic behind the load/store/fetch-add/CAS
// vocabulary spec'd for the runtime's word-sized primitives.
//
// Go's memory model already ties happens-before to operations on the same
// atomic variable, so this package does not reimplement ordering — it names
// it. Every operation here is sequentially consistent; the acquire/release
// distinction from the original design is documentation only; methods that
// only ever need a one-sided barrier are still named Load/Store so callers
// reading the spec recognize them.
package atomic

import "sync/atomic"

// Int64 is a sequentially-consistent signed word.
type Int64 struct{ v atomic.Int64 }

func (a *Int64) Load() int64                    { return a.v.Load() }
func (a *Int64) Store(val int64)                 { a.v.Store(val) }
func (a *Int64) Add(delta int64) int64           { return a.v.Add(delta) }
func (a *Int64) Swap(val int64) int64            { return a.v.Swap(val) }
func (a *Int64) CAS(old, new int64) bool         { return a.v.CompareAndSwap(old, new) }
func (a *Int64) CASPrev(old, new int64) int64 {
	for {
		cur := a.v.Load()
		if cur != old {
			return cur
		}
		if a.v.CompareAndSwap(old, new) {
			return old
		}
	}
}

// Uint64 is a sequentially-consistent unsigned word, used for refcounts and
// monotonic counters.
type Uint64 struct{ v atomic.Uint64 }

func (a *Uint64) Load() uint64            { return a.v.Load() }
func (a *Uint64) Store(val uint64)        { a.v.Store(val) }
func (a *Uint64) Add(delta uint64) uint64 { return a.v.Add(delta) }
func (a *Uint64) Sub(delta uint64) uint64 { return a.v.Add(^(delta - 1)) }
func (a *Uint64) CAS(old, new uint64) bool {
	return a.v.CompareAndSwap(old, new)
}

// Bool is a sequentially-consistent flag, used as the word a SpinLock
// try_acquires with a 0->1 CAS and unlocks with a release store of 0.
type Bool struct{ v atomic.Bool }

func (a *Bool) Load() bool         { return a.v.Load() }
func (a *Bool) Store(val bool)     { a.v.Store(val) }
func (a *Bool) Swap(val bool) bool { return a.v.Swap(val) }
func (a *Bool) CAS(old, new bool) bool {
	return a.v.CompareAndSwap(old, new)
}

// TryLock performs the CAS false->true a SpinLock/AdaptiveLock acquire uses.
func (a *Bool) TryLock() bool { return a.v.CompareAndSwap(false, true) }

// Unlock performs the release store a SpinLock/AdaptiveLock release uses.
func (a *Bool) Unlock() { a.v.Store(false) }

// Pointer is a sequentially-consistent pointer-width slot, used by the
// refcounted handle and hand-off-slot pool to publish/consume a value
// atomically.
type Pointer[T any] struct{ v atomic.Pointer[T] }

func (a *Pointer[T]) Load() *T                  { return a.v.Load() }
func (a *Pointer[T]) Store(val *T)               { a.v.Store(val) }
func (a *Pointer[T]) Swap(val *T) *T             { return a.v.Swap(val) }
func (a *Pointer[T]) CAS(old, new *T) bool       { return a.v.CompareAndSwap(old, new) }
