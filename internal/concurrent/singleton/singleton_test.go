package singleton

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chat-relay/internal/concurrent/atexit"
)

func TestGetConstructsOnce(t *testing.T) {
	var box Box[int]
	calls := 0
	var mu sync.Mutex

	newFn := func() int {
		mu.Lock()
		calls++
		mu.Unlock()
		return 42
	}

	const n = 50
	var wg sync.WaitGroup
	results := make([]*int, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = box.Get(newFn, nil, 0)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, calls)
	for _, r := range results {
		require.Same(t, results[0], r)
		require.Equal(t, 42, *r)
	}
}

func TestReentrantConstructionPanics(t *testing.T) {
	var box Box[int]

	done := make(chan any, 1)
	go func() {
		defer func() { done <- recover() }()
		box.Get(func() int {
			// calling Get again from the same goroutine, before the first
			// construction finished, must panic.
			return *box.Get(func() int { return 1 }, nil, 0)
		}, nil, 0)
	}()

	r := <-done
	require.NotNil(t, r, "reentrant singleton construction must panic")
}

func TestDestructorRegisteredWithAtexit(t *testing.T) {
	var box Box[int]
	destroyed := false

	box.Get(func() int { return 9 }, func(v *int) { destroyed = true }, 0)
	require.False(t, destroyed)

	atexit.Default().Run()
	require.True(t, destroyed)
}
