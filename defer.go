package substrate

import (
	"runtime"
	"sync/atomic"
)

// Defer is the writable half of a promise pair: the producer holds the
// Defer and calls exactly one of SetValue/SetException/SetExpect to
// settle it, while consumers see only the corresponding Promise.
type Defer[T any] struct {
	state   *promiseState[T]
	settled atomic.Bool
}

// NewDefer creates a fresh, pending Defer/Promise pair.
func NewDefer[T any]() *Defer[T] {
	return &Defer[T]{state: newPromiseState[T]()}
}

// Promise returns the read-only observer for this Defer. May be called
// any number of times; all returned Promises share the same state.
func (d *Defer[T]) Promise() Promise[T] {
	return Promise[T]{state: d.state}
}

// SetValue fulfils the promise with v. Returns ErrDeferAlreadySettled if
// this Defer (or a prior SetException/SetExpect/Abandon) already settled.
func (d *Defer[T]) SetValue(v T) error {
	return d.SetExpect(Fulfill(v))
}

// SetException refuses the promise with err.
func (d *Defer[T]) SetException(err error) error {
	return d.SetExpect(Refuse[T](err))
}

// SetExpect settles the promise with a pre-built Expect, useful when
// forwarding an outcome computed elsewhere without re-wrapping it.
func (d *Defer[T]) SetExpect(e Expect[T]) error {
	if !d.settled.CompareAndSwap(false, true) {
		return ErrDeferAlreadySettled
	}
	d.Promise().settle(e)
	return nil
}

// SetByFunc settles the promise with the result of calling fn: a nil error
// fulfils with v, a non-nil error refuses. Mirrors the source's pattern of
// adapting a (value, error) producing call into a promise settlement.
func (d *Defer[T]) SetByFunc(fn func() (T, error)) error {
	v, err := fn()
	if err != nil {
		return d.SetException(err)
	}
	return d.SetValue(v)
}

// Satisfy adopts another promise's eventual outcome: once other settles,
// this Defer settles the same way. Used to flatten a promise of a promise.
func (d *Defer[T]) Satisfy(other Promise[T]) {
	_ = other.registerContinuation(func(e Expect[T]) {
		_ = d.SetExpect(e)
	})
}

// Abandon settles the promise with ErrAbandoned if it has not already
// settled, and reports the abandonment (spec.md's resolution of the
// "dropped defer" Open Question: Go has no deterministic destructor, so a
// caller that drops a Defer without settling it must call Abandon
// explicitly, typically via a defer statement at the Defer's creation
// site).
func (d *Defer[T]) Abandon() {
	if !d.settled.CompareAndSwap(false, true) {
		return
	}
	var at origin
	if _, file, line, ok := runtime.Caller(1); ok {
		at = origin{file: file, line: line}
	}
	reportAbandoned(at.String())
	d.Promise().settle(Expect[T]{err: &AbandonedError{Origin: at.String()}, at: at})
}

// IsSettled reports whether this Defer has already been settled.
func (d *Defer[T]) IsSettled() bool {
	return d.settled.Load()
}
