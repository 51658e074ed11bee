package substrate

// ReadUnwrap is the Go-generics stand-in for the source's
// Channel<Promise<T>> template specialisation: reading from a channel of
// promises yields the inner promise's eventual outcome directly, rather
// than a Promise[Promise[T]]. If the inner promise rejects, this read
// rejects with the same error, but the channel itself remains open --
// subsequent reads still work normally.
func ReadUnwrap[T any](r Readable[Promise[T]]) Promise[T] {
	d := NewDefer[T]()
	_ = r.Read().registerContinuation(func(e Expect[Promise[T]]) {
		if e.HasException() {
			_ = d.SetException(e.Exception())
			return
		}
		d.Satisfy(e.Consume())
	})
	return d.Promise()
}
