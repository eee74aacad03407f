// Package lock implements the three lock variants from spec.md §4.C, all
// sharing the plain acquire/release contract of sync.Locker so any of them
// can back a guard.Guard or cond.Cond.
package lock

import (
	"math/rand/v2"
	"runtime"
	"time"

	catomic "github.com/chatrelay/chat-relay/internal/concurrent/atomic"
)

// SpinLock busy-waits on a CAS, calling pause (runtime.Gosched) between
// attempts. It never blocks in the OS scheduler and must only guard very
// short critical sections.
type SpinLock struct {
	held catomic.Bool
}

func (s *SpinLock) Lock() {
	for !s.held.TryLock() {
		pause()
	}
}

// TryLock attempts to acquire without blocking, per spec.md §4.C.
func (s *SpinLock) TryLock() bool { return s.held.TryLock() }

func (s *SpinLock) Unlock() { s.held.Unlock() }

// pause is the busy-wait primitive; runtime.Gosched is the portable
// stand-in for the PAUSE instruction the spec's SpinLock spins on.
func pause() { runtime.Gosched() }

const (
	adaptiveBaseInterval = 500 * time.Microsecond
	adaptiveGrowthFactor = 1.5
	adaptiveMaxInterval  = 20 * time.Millisecond
	adaptiveSpinRounds   = 64
)

// AdaptiveLock spins briefly, then backs off through randomized
// exponentially-growing sleeps (500µs base, x1.5 per round) capped at 20ms.
// Once the cap is reached it keeps sleeping around the cap between
// attempts; there is no later OS-yield stage.
type AdaptiveLock struct {
	held catomic.Bool
}

func (a *AdaptiveLock) Lock() {
	for i := 0; i < adaptiveSpinRounds; i++ {
		if a.held.TryLock() {
			return
		}
		pause()
	}

	backoff := adaptiveBaseInterval
	for {
		if a.held.TryLock() {
			return
		}
		// jitter around backoff in [0.5x, 1.5x) so many contending
		// waiters don't resonate on the same wakeup.
		jittered := time.Duration(float64(backoff) * (0.5 + rand.Float64()))
		time.Sleep(jittered)

		backoff = time.Duration(float64(backoff) * adaptiveGrowthFactor)
		if backoff > adaptiveMaxInterval {
			backoff = adaptiveMaxInterval
		}
	}
}

func (a *AdaptiveLock) TryLock() bool { return a.held.TryLock() }

func (a *AdaptiveLock) Unlock() { a.held.Unlock() }

// RecursiveMutex is a recursive mutual-exclusion lock: the holder goroutine
// may reacquire it without deadlocking. Non-holders block on an
// AdaptiveLock-shaped wait.
type RecursiveMutex struct {
	gate  AdaptiveLock
	owner catomic.Uint64 // goroutine id of the current holder, 0 = unlocked
	depth int
}

func (m *RecursiveMutex) Lock() {
	gid := CurrentGoroutineID()
	if m.owner.Load() == gid {
		m.depth++
		return
	}
	m.gate.Lock()
	m.owner.Store(gid)
	m.depth = 1
}

// TryLock attempts to acquire without blocking.
func (m *RecursiveMutex) TryLock() bool {
	gid := CurrentGoroutineID()
	if m.owner.Load() == gid {
		m.depth++
		return true
	}
	if m.gate.TryLock() {
		m.owner.Store(gid)
		m.depth = 1
		return true
	}
	return false
}

func (m *RecursiveMutex) Unlock() {
	gid := CurrentGoroutineID()
	if m.owner.Load() != gid {
		panic("lock: RecursiveMutex unlocked from a non-holder goroutine")
	}
	m.depth--
	if m.depth > 0 {
		return
	}
	m.owner.Store(0)
	m.gate.Unlock()
}
