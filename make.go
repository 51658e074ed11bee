package substrate

// MakePromise is spec.md section 4.4's primary make_promise(queue, fn)
// form (also listed among the required external-interface calls in
// section 6b): fn is scheduled as a Task on q, and the returned promise
// resolves with fn's (value, error) outcome once it runs.
func MakePromise[T any](q *Queue, fn func() (T, error)) Promise[T] {
	d := NewDefer[T]()
	q.Push(NewTaskWithAbandon(
		func() { _ = d.SetByFunc(fn) },
		d.Abandon,
	))
	return d.Promise()
}

// MakePromiseAdopt is MakePromise for an fn that itself returns a promise
// to adopt (flattened) rather than a plain (T, error) pair.
func MakePromiseAdopt[T any](q *Queue, fn func() Promise[T]) Promise[T] {
	d := NewDefer[T]()
	q.Push(NewTaskWithAbandon(
		func() { d.Satisfy(fn()) },
		d.Abandon,
	))
	return d.Promise()
}

// MakePromiseWithResolvers builds a promise pair and hands fn a
// resolve/reject pair of callbacks, spec.md section 4.4's "two-argument
// form" for an imperative driver that cannot express its outcome as a
// single (value, error) return -- e.g. a callback-based API being
// bridged into a promise.
func MakePromiseWithResolvers[T any](fn func(resolve func(T), reject func(error))) Promise[T] {
	d := NewDefer[T]()
	fn(
		func(v T) { _ = d.SetValue(v) },
		func(err error) { _ = d.SetException(err) },
	)
	return d.Promise()
}

// Resolved returns an already-fulfilled promise, the degenerate case
// useful for feeding a literal value into combinator chains.
func Resolved[T any](v T) Promise[T] {
	d := NewDefer[T]()
	_ = d.SetValue(v)
	return d.Promise()
}

// Rejected returns an already-refused promise.
func Rejected[T any](err error) Promise[T] {
	d := NewDefer[T]()
	_ = d.SetException(err)
	return d.Promise()
}

// Try calls fn and wraps its outcome as a settled promise, converting a
// panic into a refusal rather than propagating it -- spec.md's
// supplemented "Promise.Try" feature, carried over from the source's
// exception-safe promise construction (original_source's promise
// constructors catch and store any exception raised while computing the
// initial value).
func Try[T any](fn func() (T, error)) (p Promise[T]) {
	d := NewDefer[T]()
	defer func() {
		if r := recover(); r != nil {
			_ = d.SetException(panicToError(r))
			p = d.Promise()
		}
	}()
	v, err := fn()
	if err != nil {
		_ = d.SetException(err)
	} else {
		_ = d.SetValue(v)
	}
	return d.Promise()
}
