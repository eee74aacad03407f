package handle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleDestroysAtZero(t *testing.T) {
	destroyed := 0
	body := 42
	h := NewWithDestructor(&body, func(*int) { destroyed++ })

	r1 := h.Ref()
	r2 := h.Ref()
	require.EqualValues(t, 3, h.Count())

	h.Release()
	require.Equal(t, 0, destroyed)
	r1.Release()
	require.Equal(t, 0, destroyed)
	r2.Release()
	require.Equal(t, 1, destroyed)
}

func TestHandleConcurrentRefRelease(t *testing.T) {
	destroyed := 0
	body := "x"
	h := NewWithDestructor(&body, func(*string) { destroyed++ })

	const n = 100
	var wg sync.WaitGroup
	refs := make([]*Handle[string], n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			refs[i] = h.Ref()
		}(i)
	}
	wg.Wait()

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			refs[i].Release()
		}(i)
	}
	wg.Wait()

	require.Equal(t, 0, destroyed)
	h.Release()
	require.Equal(t, 1, destroyed)
}

func TestHandleWeakDoesNotTriggerDestructor(t *testing.T) {
	destroyed := 0
	body := 1
	h := NewWithDestructor(&body, func(*int) { destroyed++ })
	sub := h.Ref()
	sub.Weak()
	require.Equal(t, 0, destroyed)
	h.Release()
	require.Equal(t, 1, destroyed)
}
