package future

import "sync"

// Apply schedules fn to run once f is terminal (inline if already terminal)
// and returns a future that resolves to fn's result. A panic inside fn is
// captured as the produced future's exception instead of propagating to
// whichever goroutine happened to resolve f.
func Apply[T, R any](f Future[T], fn func(Future[T]) R) Future[R] {
	p, nf := NewPromise[R]()
	f.Subscribe(func(ft Future[T]) {
		defer func() {
			if r := recover(); r != nil {
				p.TrySetException(recoverToError(r))
			}
		}()
		p.TrySetValue(fn(ft))
	})
	return nf
}

// ApplyFlat is Apply for a fn that itself returns a future: the outer
// future resolves when the inner one does, flattening Future[Future[R]]
// into Future[R] (spec.md §4.K's "apply, with flattening").
func ApplyFlat[T, R any](f Future[T], fn func(Future[T]) Future[R]) Future[R] {
	p, nf := NewPromise[R]()
	f.Subscribe(func(ft Future[T]) {
		defer func() {
			if r := recover(); r != nil {
				p.TrySetException(recoverToError(r))
			}
		}()
		inner := fn(ft)
		inner.Subscribe(func(innerF Future[R]) {
			if err := innerF.TryRethrow(); err != nil {
				p.TrySetException(err)
				return
			}
			v, err := innerF.GetValue(0)
			if err != nil {
				p.TrySetException(err)
				return
			}
			p.TrySetValue(v)
		})
	})
	return nf
}

// IgnoreResult returns a future that resolves to an empty struct when f
// resolves successfully, or carries f's exception forward otherwise.
func IgnoreResult[T any](f Future[T]) Future[struct{}] {
	p, nf := NewPromise[struct{}]()
	f.Subscribe(func(ft Future[T]) {
		if err := ft.TryRethrow(); err != nil {
			p.TrySetException(err)
			return
		}
		p.TrySetValue(struct{}{})
	})
	return nf
}

// WithValue returns a future that resolves to v once f resolves
// successfully, or carries f's exception forward otherwise.
func WithValue[T, V any](f Future[T], v V) Future[V] {
	p, nf := NewPromise[V]()
	f.Subscribe(func(ft Future[T]) {
		if err := ft.TryRethrow(); err != nil {
			p.TrySetException(err)
			return
		}
		p.TrySetValue(v)
	})
	return nf
}

// WaitAll resolves once every input has resolved. If one or more failed,
// the composite fails with the first (by input position) recorded
// exception; otherwise it resolves successfully. A single input is
// degenerate: the composite tracks it directly via IgnoreResult.
func WaitAll[T any](fs ...Future[T]) Future[struct{}] {
	p, nf := NewPromise[struct{}]()
	switch len(fs) {
	case 0:
		p.SetValue(struct{}{})
		return nf
	case 1:
		return IgnoreResult(fs[0])
	}

	var mu sync.Mutex
	remaining := len(fs)
	failures := make([]error, len(fs))
	for i, fut := range fs {
		i, fut := i, fut
		fut.Subscribe(func(ft Future[T]) {
			err := ft.TryRethrow()
			mu.Lock()
			failures[i] = err
			remaining--
			done := remaining == 0
			mu.Unlock()
			if !done {
				return
			}
			for _, e := range failures {
				if e != nil {
					p.TrySetException(e)
					return
				}
			}
			p.TrySetValue(struct{}{})
		})
	}
	return nf
}

// WaitAny resolves as soon as the first input resolves, carrying that
// input's value or exception forward. A single input is its own
// degenerate composite.
func WaitAny[T any](fs ...Future[T]) Future[T] {
	if len(fs) == 1 {
		return fs[0]
	}
	p, nf := NewPromise[T]()
	if len(fs) == 0 {
		var zero T
		p.SetValue(zero)
		return nf
	}
	for _, fut := range fs {
		fut.Subscribe(func(ft Future[T]) {
			if err := ft.TryRethrow(); err != nil {
				p.TrySetException(err)
				return
			}
			v, err := ft.GetValue(0)
			if err != nil {
				p.TrySetException(err)
				return
			}
			p.TrySetValue(v)
		})
	}
	return nf
}

// WaitExceptionOrAll resolves with the first exception seen from any
// input, as soon as it occurs, or resolves successfully once every input
// has succeeded with none failing. A single input is degenerate: the
// composite tracks it directly via IgnoreResult.
func WaitExceptionOrAll[T any](fs ...Future[T]) Future[struct{}] {
	p, nf := NewPromise[struct{}]()
	switch len(fs) {
	case 0:
		p.SetValue(struct{}{})
		return nf
	case 1:
		return IgnoreResult(fs[0])
	}

	var mu sync.Mutex
	remaining := len(fs)
	for _, fut := range fs {
		fut.Subscribe(func(ft Future[T]) {
			if err := ft.TryRethrow(); err != nil {
				p.TrySetException(err)
				return
			}
			mu.Lock()
			remaining--
			done := remaining == 0
			mu.Unlock()
			if done {
				p.TrySetValue(struct{}{})
			}
		})
	}
	return nf
}
