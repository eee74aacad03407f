package storage

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerWrapper wraps a Wrapper's back-end calls in a
// github.com/sony/gobreaker circuit breaker, tripping open after a run of
// consecutive back-end failures so a failing storage back-end (a
// database down, a full disk) stops being hammered by every inbound RPC
// and instead fails fast. Grounded on the teacher's circuit-breaking
// around its outbound adapters; generalized here to the storage wrapper.
type BreakerWrapper struct {
	inner   *Wrapper
	breaker *gobreaker.CircuitBreaker[any]
}

// NewBreakerWrapper wraps inner with a breaker that opens after
// consecutiveFailures back-end calls in a row fail, and stays open for
// openFor before allowing a single trial call through.
func NewBreakerWrapper(inner *Wrapper, consecutiveFailures uint32, openFor time.Duration) *BreakerWrapper {
	st := gobreaker.Settings{
		Name:    "storage",
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
	}
	return &BreakerWrapper{inner: inner, breaker: gobreaker.NewCircuitBreaker[any](st)}
}

// Store interposes the circuit breaker around inner.Store.
func (b *BreakerWrapper) Store(ctx context.Context, msg Message) (Message, error) {
	v, err := b.breaker.Execute(func() (any, error) { return b.inner.Store(ctx, msg) })
	if err != nil {
		return Message{}, err
	}
	return v.(Message), nil
}

// Load interposes the circuit breaker around inner.Load.
func (b *BreakerWrapper) Load(ctx context.Context, addressees []string, now uint64) ([]Message, error) {
	v, err := b.breaker.Execute(func() (any, error) { return b.inner.Load(ctx, addressees, now) })
	if err != nil {
		return nil, err
	}
	return v.([]Message), nil
}

// LoadSent interposes the circuit breaker around inner.LoadSent.
func (b *BreakerWrapper) LoadSent(ctx context.Context, user string, now uint64) ([]Message, error) {
	v, err := b.breaker.Execute(func() (any, error) { return b.inner.LoadSent(ctx, user, now) })
	if err != nil {
		return nil, err
	}
	return v.([]Message), nil
}

// LoadByUID interposes the circuit breaker around inner.LoadByUID.
func (b *BreakerWrapper) LoadByUID(ctx context.Context, uid uint64) (Message, bool, error) {
	type result struct {
		msg   Message
		found bool
	}
	v, err := b.breaker.Execute(func() (any, error) {
		msg, found, err := b.inner.LoadByUID(ctx, uid)
		return result{msg, found}, err
	})
	if err != nil {
		return Message{}, false, err
	}
	r := v.(result)
	return r.msg, r.found, nil
}

// Close tears down the wrapped back-end, bypassing the breaker.
func (b *BreakerWrapper) Close() error { return b.inner.Close() }

// State reports the breaker's current state, for the admin introspection
// surface.
func (b *BreakerWrapper) State() gobreaker.State { return b.breaker.State() }
