package substrate

import "errors"

// Package-level free functions stand in for the source's promise member
// functions (then/fail/tap/...): Go methods cannot introduce new type
// parameters, so a transformation from Promise[T] to Promise[U] must be a
// free function instead of a Promise[T] method.

// Then chains fn onto p's successful outcome, producing a new promise of
// U. If p refuses, the refusal passes through unchanged (fn is not
// called). q, if non-nil, is the queue fn's invocation is scheduled onto;
// nil runs fn synchronously on the settling goroutine.
func Then[T, U any](p Promise[T], q *Queue, fn func(T) U) Promise[U] {
	d := NewDefer[U]()
	if q != nil {
		p = p.onQueue(q)
	}
	_ = p.registerContinuation(func(e Expect[T]) {
		if e.HasException() {
			_ = d.SetException(e.Exception())
			return
		}
		_ = d.SetValue(fn(e.Consume()))
	})
	return d.Promise()
}

// ThenPromise is Then for a continuation that itself returns a promise;
// the result is flattened (adopted) rather than nested as Promise[Promise[U]].
func ThenPromise[T, U any](p Promise[T], q *Queue, fn func(T) Promise[U]) Promise[U] {
	d := NewDefer[U]()
	if q != nil {
		p = p.onQueue(q)
	}
	_ = p.registerContinuation(func(e Expect[T]) {
		if e.HasException() {
			_ = d.SetException(e.Exception())
			return
		}
		d.Satisfy(fn(e.Consume()))
	})
	return d.Promise()
}

// Fail chains fn onto p's refusal, recovering it into a successful T.
// A fulfilled p passes its value through unchanged.
func Fail[T any](p Promise[T], q *Queue, fn func(error) T) Promise[T] {
	d := NewDefer[T]()
	if q != nil {
		p = p.onQueue(q)
	}
	_ = p.registerContinuation(func(e Expect[T]) {
		if !e.HasException() {
			_ = d.SetValue(e.Consume())
			return
		}
		_ = d.SetValue(fn(e.Exception()))
	})
	return d.Promise()
}

// FailPromise is Fail for a recovery callback that itself returns a
// promise, flattened into the result.
func FailPromise[T any](p Promise[T], q *Queue, fn func(error) Promise[T]) Promise[T] {
	d := NewDefer[T]()
	if q != nil {
		p = p.onQueue(q)
	}
	_ = p.registerContinuation(func(e Expect[T]) {
		if !e.HasException() {
			_ = d.SetValue(e.Consume())
			return
		}
		d.Satisfy(fn(e.Exception()))
	})
	return d.Promise()
}

// FailAs is Fail restricted to a declared error kind E, spec.md section
// 4.3's "error-type-match for fail": fn only runs when the refusal's
// error is assignable to E (via errors.As); otherwise the refusal passes
// through unchanged, so a later FailAs/Fail targeting a different kind
// still gets a chance to observe and recover the error.
func FailAs[T any, E error](p Promise[T], q *Queue, fn func(E) T) Promise[T] {
	d := NewDefer[T]()
	if q != nil {
		p = p.onQueue(q)
	}
	_ = p.registerContinuation(func(e Expect[T]) {
		if !e.HasException() {
			_ = d.SetValue(e.Consume())
			return
		}
		var target E
		if errors.As(e.Exception(), &target) {
			_ = d.SetValue(fn(target))
			return
		}
		_ = d.SetExpect(e)
	})
	return d.Promise()
}

// Tap observes a successful outcome without changing it: the returned
// promise forwards p's value once fn has run, and any panic inside fn does
// not affect p's result
// (it surfaces through the normal uncaught-task reporting path if fn is
// dispatched via a queue, or propagates to the settling goroutine
// otherwise -- same as the source's tap()).
func Tap[T any](p Promise[T], q *Queue, fn func(T)) Promise[T] {
	return Then(p, q, func(v T) T {
		fn(v)
		return v
	})
}

// TapError observes a refusal without recovering it; the refusal still
// propagates to further continuations unchanged.
func TapError[T any](p Promise[T], q *Queue, fn func(error)) Promise[T] {
	d := NewDefer[T]()
	if q != nil {
		p = p.onQueue(q)
	}
	_ = p.registerContinuation(func(e Expect[T]) {
		if e.HasException() {
			fn(e.Exception())
		}
		_ = d.SetExpect(e)
	})
	return d.Promise()
}

// Strip discards a successful value, collapsing Promise[T] to Promise[unit];
// a refusal still propagates.
func Strip[T any](p Promise[T]) Promise[unit] {
	return Then(p, nil, func(T) unit { return Void })
}

// Finally runs fn once p settles, regardless of outcome, without altering
// the outcome seen by further continuations on the returned promise.
func Finally[T any](p Promise[T], q *Queue, fn func()) Promise[T] {
	d := NewDefer[T]()
	if q != nil {
		p = p.onQueue(q)
	}
	_ = p.registerContinuation(func(e Expect[T]) {
		fn()
		_ = d.SetExpect(e)
	})
	return d.Promise()
}

// Done terminates a chain: if p ultimately refuses, the error is reported
// exactly once through the package's single uncaught-rejection log sink
// (spec.md section 7) instead of being silently dropped.
func Done[T any](p Promise[T]) {
	_ = p.registerContinuation(func(e Expect[T]) {
		if e.HasException() {
			reportUncaught(e.Exception(), e.Origin())
		}
	})
}

// Delay returns a promise that fulfils with v only once the given queue's
// scheduler has run t. The task pushed onto q keeps t's deadline, so for a
// t built with NewTimedTask the promise does not settle before that
// deadline; it is a thin helper for tests and examples that need "resolve
// after scheduling a task", not a sleep.
func Delay[T any](q *Queue, t Task, v T) Promise[T] {
	d := NewDefer[T]()
	task := NewTaskWithAbandon(
		func() {
			t.Run()
			_ = d.SetValue(v)
		},
		d.Abandon,
	)
	task.waitUntil = t.waitUntil
	q.Push(task)
	return d.Promise()
}
