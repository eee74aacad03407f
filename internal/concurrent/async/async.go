// Package async bridges internal/concurrent/pool and
// internal/concurrent/future per spec.md §4.N: running a function on a
// pool and returning a future for its eventual result.
package async

import (
	"fmt"

	"github.com/chatrelay/chat-relay/internal/concurrent/future"
	"github.com/chatrelay/chat-relay/internal/concurrent/pool"
)

// Async submits fn to p and returns a future that resolves to fn's result,
// or to fn's error, or to a captured panic if fn panics.
func Async[T any](p pool.Pool, fn func() (T, error)) future.Future[T] {
	prom, fut := future.NewPromise[T]()
	err := p.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				prom.TrySetException(panicToError(r))
			}
		}()
		v, err := fn()
		if err != nil {
			prom.TrySetException(err)
			return
		}
		prom.TrySetValue(v)
	})
	if err != nil {
		prom.TrySetException(err)
	}
	return fut
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errPanic{r}
}

type errPanic struct{ v any }

func (e errPanic) Error() string { return fmt.Sprintf("async: panic in submitted function: %v", e.v) }
