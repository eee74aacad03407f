package tlocal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCellLazyPerGoroutine(t *testing.T) {
	constructed := 0
	var mu sync.Mutex
	c := New(func() int {
		mu.Lock()
		constructed++
		mu.Unlock()
		return 7
	}, nil)

	require.Equal(t, 7, *c.Get())
	require.Equal(t, 7, *c.Get()) // same goroutine, not reconstructed
	require.Equal(t, 1, constructed)

	done := make(chan int)
	go func() { done <- *c.Get() }()
	require.Equal(t, 7, <-done)
	require.Equal(t, 2, constructed)
}

func TestCellMutationIsPerGoroutine(t *testing.T) {
	c := New(func() int { return 0 }, nil)

	*c.Get() = 100

	done := make(chan int)
	go func() { done <- *c.Get() }()
	require.Equal(t, 0, <-done, "another goroutine must see its own instance")
	require.Equal(t, 100, *c.Get())
}

func TestTeardownCurrentRunsDestructor(t *testing.T) {
	destroyedWith := -1
	c := New(func() int { return 5 }, func(v int) { destroyedWith = v })

	done := make(chan struct{})
	go func() {
		defer close(done)
		*c.Get() = 99
		TeardownCurrent()
	}()
	<-done

	require.Equal(t, 99, destroyedWith)
}
