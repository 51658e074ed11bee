package substrate

import (
	"runtime"
	"sync/atomic"
)

func badFunctionCallError() error {
	if _, file, line, ok := runtime.Caller(2); ok {
		return &BadFunctionCallError{Origin: origin{file: file, line: line}.String()}
	}
	return &BadFunctionCallError{}
}

// UniqueFunc and SharedFunc are the two function-container flavours
// spec.md section 4.8 asks for: a move-only, call-at-most-once form and a
// copyable, call-any-number-of-times form, with an explicit Share()
// conversion from the former to the latter.
//
// Go closures already satisfy the small-buffer-optimisation goal the
// source pursues with a fat-pointer/vtable representation: a func value is
// itself a two-word, heap-allocated-only-when-captured-variables-require-it
// callable, so there is no stdlib-vs-library gap to fill here and no
// third-party container type in the retrieval pack implements this (the
// teacher stores raw interface{}/func values directly). This file exists
// only to reproduce the call-once contract and the BadFunctionCall error
// for an uninitialised container, not to reimplement closures.

// UniqueFunc wraps a zero-argument callable that may be invoked at most
// once. Invoking it a second time, or invoking a zero-value UniqueFunc,
// returns ErrBadFunctionCall.
type UniqueFunc struct {
	fn     func()
	called atomic.Bool
}

// NewUniqueFunc constructs a UniqueFunc around fn. fn must not be nil.
func NewUniqueFunc(fn func()) UniqueFunc {
	return UniqueFunc{fn: fn}
}

// Invoke calls the wrapped function exactly once.
func (u *UniqueFunc) Invoke() error {
	if u.fn == nil {
		return badFunctionCallError()
	}
	if !u.called.CompareAndSwap(false, true) {
		return badFunctionCallError()
	}
	u.fn()
	return nil
}

// Share converts this unique container into a shared, copyable one. After
// Share, the original UniqueFunc should no longer be invoked directly
// (mirroring the source's forfeit-unique-use-on-share contract); Go cannot
// enforce move-out statically, so this is documented, not compiled, policy.
func (u *UniqueFunc) Share() SharedFunc {
	return SharedFunc{fn: u.fn}
}

// SharedFunc wraps a zero-argument callable that may be invoked any number
// of times, by any number of copies.
type SharedFunc struct {
	fn func()
}

// NewSharedFunc constructs a SharedFunc around fn. fn must not be nil.
func NewSharedFunc(fn func()) SharedFunc {
	return SharedFunc{fn: fn}
}

// Invoke calls the wrapped function.
func (s SharedFunc) Invoke() error {
	if s.fn == nil {
		return badFunctionCallError()
	}
	s.fn()
	return nil
}
