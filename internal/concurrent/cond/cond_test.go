package cond

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCondSignalWakesOneWaiter(t *testing.T) {
	var mu sync.Mutex
	c := New(&mu)

	woke := make(chan int, 2)
	wait := func(id int) {
		mu.Lock()
		c.Wait(time.Time{})
		mu.Unlock()
		woke <- id
	}

	go wait(1)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	c.Signal()
	mu.Unlock()

	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatal("signal never woke the waiter")
	}
}

func TestCondBroadcastWakesAll(t *testing.T) {
	var mu sync.Mutex
	c := New(&mu)

	const n = 5
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			mu.Lock()
			c.Wait(time.Time{})
			mu.Unlock()
		}()
	}
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	c.Broadcast()
	mu.Unlock()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast did not wake all waiters")
	}
}

func TestCondWaitDeadlineElapses(t *testing.T) {
	var mu sync.Mutex
	c := New(&mu)

	mu.Lock()
	start := time.Now()
	woke := c.Wait(start.Add(30 * time.Millisecond))
	elapsed := time.Since(start)
	mu.Unlock()

	require.False(t, woke)
	require.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestCondWaitPredicate(t *testing.T) {
	var mu sync.Mutex
	c := New(&mu)
	ready := false

	done := make(chan bool, 1)
	go func() {
		mu.Lock()
		result := c.WaitPredicate(time.Time{}, func() bool { return ready })
		mu.Unlock()
		done <- result
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	ready = true
	c.Signal()
	mu.Unlock()

	select {
	case result := <-done:
		require.True(t, result)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitPredicate never observed the predicate becoming true")
	}
}

func TestCondWaitPredicateDeadline(t *testing.T) {
	var mu sync.Mutex
	c := New(&mu)

	mu.Lock()
	result := c.WaitPredicate(time.Now().Add(30*time.Millisecond), func() bool { return false })
	mu.Unlock()

	require.False(t, result)
}
