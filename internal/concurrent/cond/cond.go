// Package cond implements the deadline-aware condition variable from
// spec.md §4.D: wait on a held lock until signalled or a deadline elapses,
// with a predicate-looping overload. Go's sync.Cond has no deadline
// support, so this is built directly over a channel-based notify list
// rather than wrapping sync.Cond.
package cond

import (
	"sync"
	"time"
)

// Cond is a condition variable associated with a Locker. Unlike sync.Cond,
// Wait accepts a deadline and returns whether the wakeup happened before it.
type Cond struct {
	L Locker

	mu      sync.Mutex // protects waiters, guards against Cond's own internal races
	waiters []chan struct{}
}

// Locker is the lock a Cond's caller must hold across Wait, matching
// sync.Locker / guard.Locker.
type Locker interface {
	Lock()
	Unlock()
}

// New returns a Cond guarded by l.
func New(l Locker) *Cond { return &Cond{L: l} }

// Wait releases L, blocks until Signal/Broadcast or deadline, then
// reacquires L before returning. A zero deadline means wait indefinitely.
// Returns true if woken before the deadline elapsed.
func (c *Cond) Wait(deadline time.Time) bool {
	ch := make(chan struct{})
	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()

	c.L.Unlock()
	defer c.L.Lock()

	if deadline.IsZero() {
		<-ch
		return true
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		c.removeWaiter(ch)
		return false
	}
}

// WaitPredicate loops Wait until pred() is true or the deadline elapses,
// returning the final evaluation of pred. The predicate is assumed
// side-effect-free: a spurious wakeup near the deadline may evaluate it one
// extra time (spec.md §9 Open Question 2).
func (c *Cond) WaitPredicate(deadline time.Time, pred func() bool) bool {
	for !pred() {
		if !c.Wait(deadline) {
			return pred()
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return pred()
		}
	}
	return true
}

// Signal wakes one waiter, if any.
func (c *Cond) Signal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.waiters) == 0 {
		return
	}
	ch := c.waiters[0]
	c.waiters = c.waiters[1:]
	close(ch)
}

// Broadcast wakes every current waiter.
func (c *Cond) Broadcast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.waiters {
		close(ch)
	}
	c.waiters = nil
}

func (c *Cond) removeWaiter(target chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, ch := range c.waiters {
		if ch == target {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}
