package substrate

import "sync"

// ConsumeChannel drains r by invoking fn on each value. Up to concurrency
// workers each hold one outstanding Read() at a time, so at most
// concurrency fn calls are in flight simultaneously. The returned promise
// resolves once every worker has observed a clean close (after any
// in-flight fn calls finish), or rejects with the first error seen --
// either the channel's close error or fn's return value -- as soon as
// that error is seen, without waiting for the other workers.
func ConsumeChannel[T any](r Readable[T], concurrency int, fn func(T) error) Promise[unit] {
	if concurrency < 1 {
		concurrency = 1
	}
	d := NewDefer[unit]()

	var (
		mu     sync.Mutex
		active = concurrency
	)

	workerClosedCleanly := func() {
		mu.Lock()
		active--
		done := active == 0
		mu.Unlock()
		if done {
			_ = d.SetValue(Void)
		}
	}

	var step func()
	step = func() {
		_ = r.Read().registerContinuation(func(e Expect[T]) {
			if e.HasException() {
				if e.Exception() == ErrChannelClosed {
					workerClosedCleanly()
					return
				}
				// A reject-with-cause close fails the whole consume
				// immediately; other workers still blocked on a Read()
				// of their own simply never complete (no cancellation
				// of an in-flight read, per the channel's Non-goals).
				_ = d.SetException(e.Exception())
				return
			}

			if err := fn(e.Consume()); err != nil {
				_ = d.SetException(err)
				return
			}
			step()
		})
	}

	for i := 0; i < concurrency; i++ {
		step()
	}
	return d.Promise()
}
