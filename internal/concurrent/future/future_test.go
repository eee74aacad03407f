package future

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chat-relay/internal/concurrent/errs"
)

func TestSingleAssignmentRejectsSecondWrite(t *testing.T) {
	p, f := NewPromise[int]()
	require.True(t, p.TrySetValue(1))
	require.False(t, p.TrySetValue(2))
	require.False(t, p.TrySetException(errors.New("late")))

	v, err := f.GetValue(0)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestSetValueTwicePanics(t *testing.T) {
	p, _ := NewPromise[int]()
	p.SetValue(1)
	require.Panics(t, func() { p.SetValue(2) })
}

func TestExtractThenGetFails(t *testing.T) {
	p, f := NewPromise[string]()
	p.SetValue("hello")

	v, err := f.ExtractValue(0)
	require.NoError(t, err)
	require.Equal(t, "hello", v)

	_, err = f.GetValue(0)
	require.Error(t, err)
	var kerr *errs.KindError
	require.ErrorAs(t, err, &kerr)
	require.Equal(t, errs.ValueWasMoved, kerr.Tag)

	_, err = f.ExtractValue(0)
	require.Error(t, err)
}

func TestGetValueZeroTimeoutDoesNotBlock(t *testing.T) {
	_, f := NewPromise[int]()
	_, err := f.GetValue(0)
	require.Error(t, err)
	var kerr *errs.KindError
	require.ErrorAs(t, err, &kerr)
	require.Equal(t, errs.ValueNotSet, kerr.Tag)
}

func TestGetValueWaitsAndTimesOut(t *testing.T) {
	_, f := NewPromise[int]()
	start := time.Now()
	_, err := f.GetValue(20 * time.Millisecond)
	require.Error(t, err)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSubscribeFiresInlineWhenAlreadyTerminal(t *testing.T) {
	p, f := NewPromise[int]()
	p.SetValue(7)

	called := false
	f.Subscribe(func(rf Future[int]) {
		called = true
		v, err := rf.GetValue(0)
		require.NoError(t, err)
		require.Equal(t, 7, v)
	})
	require.True(t, called)
}

func TestSubscribeFiresAfterValueVisible(t *testing.T) {
	p, f := NewPromise[int]()
	var observed int
	done := make(chan struct{})
	f.Subscribe(func(rf Future[int]) {
		v, _ := rf.GetValue(0)
		observed = v
		close(done)
	})

	p.SetValue(9)
	<-done
	require.Equal(t, 9, observed)
}

func TestApplyMapsValue(t *testing.T) {
	p, f := NewPromise[int]()
	mapped := Apply(f, func(rf Future[int]) int {
		v, _ := rf.GetValue(0)
		return v * 2
	})
	p.SetValue(21)

	v, err := mapped.GetValue(time.Second)
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestApplyCapturesPanicAsException(t *testing.T) {
	p, f := NewPromise[int]()
	mapped := Apply(f, func(rf Future[int]) int {
		panic("boom")
	})
	p.SetValue(1)

	_, err := mapped.GetValue(time.Second)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestApplyFlatFlattens(t *testing.T) {
	p, f := NewPromise[int]()
	flattened := ApplyFlat(f, func(rf Future[int]) Future[string] {
		v, _ := rf.GetValue(0)
		return MakeFuture(time.Duration(v).String())
	})
	p.SetValue(5)

	v, err := flattened.GetValue(time.Second)
	require.NoError(t, err)
	require.Equal(t, time.Duration(5).String(), v)
}

func TestIgnoreResultPropagatesException(t *testing.T) {
	p, f := NewPromise[int]()
	cause := errors.New("failed")
	ignored := IgnoreResult(f)
	p.SetException(cause)

	_, err := ignored.GetValue(time.Second)
	require.ErrorIs(t, err, cause)
}

func TestWithValueSubstitutesResult(t *testing.T) {
	p, f := NewPromise[int]()
	replaced := WithValue(f, "done")
	p.SetValue(1)

	v, err := replaced.GetValue(time.Second)
	require.NoError(t, err)
	require.Equal(t, "done", v)
}

// TestWaitAllOneFailure is spec.md scenario S4: p1, p2, p3 combined via
// wait_all; p2 fails while p1 and p3 succeed; the composite must not be
// ready until all three resolve, and then must surface p2's exception.
func TestWaitAllOneFailure(t *testing.T) {
	p1, f1 := NewPromise[int]()
	p2, f2 := NewPromise[int]()
	p3, f3 := NewPromise[int]()

	w := WaitAll(f1, f2, f3)
	require.False(t, w.HasValue())
	require.False(t, w.HasException())

	failure := errors.New("E")
	p2.SetException(failure)
	require.False(t, w.Wait(0))

	p1.SetValue(1)
	p3.SetValue(3)

	require.True(t, w.Wait(time.Second))
	_, err := w.GetValue(0)
	require.ErrorIs(t, err, failure)
}

func TestWaitAllAllSucceed(t *testing.T) {
	p1, f1 := NewPromise[int]()
	p2, f2 := NewPromise[int]()

	w := WaitAll(f1, f2)
	p1.SetValue(1)
	p2.SetValue(2)

	_, err := w.GetValue(time.Second)
	require.NoError(t, err)
}

func TestWaitAnyReturnsFirstToFinish(t *testing.T) {
	p1, f1 := NewPromise[int]()
	p2, f2 := NewPromise[int]()
	_ = p2

	w := WaitAny(f1, f2)
	p1.SetValue(100)

	v, err := w.GetValue(time.Second)
	require.NoError(t, err)
	require.Equal(t, 100, v)
}

func TestWaitExceptionOrAllFailsFast(t *testing.T) {
	p1, f1 := NewPromise[int]()
	p2, f2 := NewPromise[int]()

	w := WaitExceptionOrAll(f1, f2)
	failure := errors.New("early failure")
	p1.SetException(failure)

	_, err := w.GetValue(time.Second)
	require.ErrorIs(t, err, failure)
	// p2 never resolving must not block the already-failed composite.
	_ = p2
}

func TestWaitExceptionOrAllSucceedsWhenAllSucceed(t *testing.T) {
	p1, f1 := NewPromise[int]()
	p2, f2 := NewPromise[int]()

	w := WaitExceptionOrAll(f1, f2)
	p1.SetValue(1)
	require.False(t, w.Wait(0))
	p2.SetValue(2)

	_, err := w.GetValue(time.Second)
	require.NoError(t, err)
}

func TestConcurrentSettersOnlyOneWins(t *testing.T) {
	p, f := NewPromise[int]()
	var wg sync.WaitGroup
	successes := make([]bool, 32)
	for i := 0; i < 32; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			successes[i] = p.TrySetValue(i)
		}()
	}
	wg.Wait()

	count := 0
	for _, ok := range successes {
		if ok {
			count++
		}
	}
	require.Equal(t, 1, count)

	v, err := f.GetValue(0)
	require.NoError(t, err)
	require.True(t, v >= 0 && v < 32)
}
