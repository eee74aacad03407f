package atomic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInt64FetchAddMonotonic verifies property 1 from spec.md §8: n
// goroutines each performing k fetch_add(1) calls on a shared counter
// yield a final value of exactly n*k, with every observed previous-value
// unique.
func TestInt64FetchAddMonotonic(t *testing.T) {
	const n, k = 32, 1000

	var counter Int64
	seen := make(chan int64, n*k)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < k; j++ {
				prev := counter.Add(1) - 1
				seen <- prev
			}
		}()
	}
	wg.Wait()
	close(seen)

	require.EqualValues(t, n*k, counter.Load())

	unique := make(map[int64]struct{}, n*k)
	for v := range seen {
		_, dup := unique[v]
		require.False(t, dup, "duplicate fetch_add return value %d", v)
		unique[v] = struct{}{}
	}
	require.Len(t, unique, n*k)
}

func TestBoolTryLockUnlock(t *testing.T) {
	var b Bool
	require.True(t, b.TryLock())
	require.False(t, b.TryLock())
	b.Unlock()
	require.True(t, b.TryLock())
}

func TestUint64AddSub(t *testing.T) {
	var u Uint64
	u.Add(5)
	require.EqualValues(t, 5, u.Load())
	u.Sub(2)
	require.EqualValues(t, 3, u.Load())
}

func TestPointerCAS(t *testing.T) {
	var p Pointer[int]
	a, b := new(int), new(int)
	*a, *b = 1, 2
	require.True(t, p.CAS(nil, a))
	require.False(t, p.CAS(nil, b))
	require.True(t, p.CAS(a, b))
	require.Equal(t, b, p.Load())
}
