package substrate

import "sync"

// All2, All3 and All4 combine fixed arities of differently-typed promises,
// standing in for the source's variadic all(promise...): Go has no
// variadic generics, so each arity needing distinct result types is a
// separate function. For a homogeneous slice of same-typed promises, use
// All instead.

// pair2 through pair4 are the tuple shapes returned by the fixed-arity
// All functions.
type pair2[A, B any] struct {
	A A
	B B
}

type pair3[A, B, C any] struct {
	A A
	B B
	C C
}

type pair4[A, B, C, D any] struct {
	A A
	B B
	C C
	D D
}

// All2 resolves once both p1 and p2 have settled successfully. Per
// spec.md section 4.4, the fixed-arity form rejects with the first error
// observed -- not a combined carrier -- and does not wait for the
// remaining leg to settle before doing so (it is still allowed to
// complete, its outcome is just discarded).
func All2[A, B any](p1 Promise[A], p2 Promise[B]) Promise[pair2[A, B]] {
	d := NewDefer[pair2[A, B]]()
	var (
		mu         sync.Mutex
		ea         Expect[A]
		eb         Expect[B]
		gotA, gotB bool
	)
	settle := func() {
		switch {
		case ea.HasException():
			_ = d.SetException(ea.Exception())
		case eb.HasException():
			_ = d.SetException(eb.Exception())
		case gotA && gotB:
			_ = d.SetValue(pair2[A, B]{A: ea.Consume(), B: eb.Consume()})
		}
	}
	_ = p1.registerContinuation(func(e Expect[A]) { mu.Lock(); ea = e; gotA = true; settle(); mu.Unlock() })
	_ = p2.registerContinuation(func(e Expect[B]) { mu.Lock(); eb = e; gotB = true; settle(); mu.Unlock() })
	return d.Promise()
}

// All3 is All2 for three promises.
func All3[A, B, C any](p1 Promise[A], p2 Promise[B], p3 Promise[C]) Promise[pair3[A, B, C]] {
	d := NewDefer[pair3[A, B, C]]()
	var (
		mu               sync.Mutex
		ea               Expect[A]
		eb               Expect[B]
		ec               Expect[C]
		gotA, gotB, gotC bool
	)
	settle := func() {
		switch {
		case ea.HasException():
			_ = d.SetException(ea.Exception())
		case eb.HasException():
			_ = d.SetException(eb.Exception())
		case ec.HasException():
			_ = d.SetException(ec.Exception())
		case gotA && gotB && gotC:
			_ = d.SetValue(pair3[A, B, C]{A: ea.Consume(), B: eb.Consume(), C: ec.Consume()})
		}
	}
	_ = p1.registerContinuation(func(e Expect[A]) { mu.Lock(); ea = e; gotA = true; settle(); mu.Unlock() })
	_ = p2.registerContinuation(func(e Expect[B]) { mu.Lock(); eb = e; gotB = true; settle(); mu.Unlock() })
	_ = p3.registerContinuation(func(e Expect[C]) { mu.Lock(); ec = e; gotC = true; settle(); mu.Unlock() })
	return d.Promise()
}

// All4 is All2 for four promises.
func All4[A, B, C, D any](p1 Promise[A], p2 Promise[B], p3 Promise[C], p4 Promise[D]) Promise[pair4[A, B, C, D]] {
	d := NewDefer[pair4[A, B, C, D]]()
	var (
		mu                     sync.Mutex
		ea                     Expect[A]
		eb                     Expect[B]
		ec                     Expect[C]
		ed                     Expect[D]
		gotA, gotB, gotC, gotD bool
	)
	settle := func() {
		switch {
		case ea.HasException():
			_ = d.SetException(ea.Exception())
		case eb.HasException():
			_ = d.SetException(eb.Exception())
		case ec.HasException():
			_ = d.SetException(ec.Exception())
		case ed.HasException():
			_ = d.SetException(ed.Exception())
		case gotA && gotB && gotC && gotD:
			_ = d.SetValue(pair4[A, B, C, D]{A: ea.Consume(), B: eb.Consume(), C: ec.Consume(), D: ed.Consume()})
		}
	}
	_ = p1.registerContinuation(func(e Expect[A]) { mu.Lock(); ea = e; gotA = true; settle(); mu.Unlock() })
	_ = p2.registerContinuation(func(e Expect[B]) { mu.Lock(); eb = e; gotB = true; settle(); mu.Unlock() })
	_ = p3.registerContinuation(func(e Expect[C]) { mu.Lock(); ec = e; gotC = true; settle(); mu.Unlock() })
	_ = p4.registerContinuation(func(e Expect[D]) { mu.Lock(); ed = e; gotD = true; settle(); mu.Unlock() })
	return d.Promise()
}

// All resolves once every promise in ps has settled, collecting each leg's
// outcome (success or failure) into a single slice. If any leg refused,
// the combined promise refuses with a CombinedFailureError[T] carrying
// every leg's Expect[T] (the vector-arity counterpart to All2/3/4, used
// when all legs share a type, e.g. fanning a single request out to N
// workers).
func All[T any](ps []Promise[T]) Promise[[]T] {
	d := NewDefer[[]T]()
	n := len(ps)
	if n == 0 {
		_ = d.SetValue(nil)
		return d.Promise()
	}

	results := make([]Expect[T], n)
	remaining := n
	var anyFailed bool
	var mu sync.Mutex

	for i, p := range ps {
		i := i
		_ = p.registerContinuation(func(e Expect[T]) {
			mu.Lock()
			results[i] = e
			if e.HasException() {
				anyFailed = true
			}
			remaining--
			done := remaining == 0
			mu.Unlock()

			if !done {
				return
			}
			if anyFailed {
				_ = d.SetException(&CombinedFailureError[T]{Outcomes: results})
				return
			}
			values := make([]T, n)
			for j, r := range results {
				values[j] = r.Consume()
			}
			_ = d.SetValue(values)
		})
	}
	return d.Promise()
}
