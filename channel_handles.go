package substrate

import (
	"errors"
	"sync"
)

// Readable is an independently cloneable handle onto the read side of a
// Channel. Go has no deterministic destructors, so the "last handle
// drop closes the channel" rule from the source is implemented
// explicitly: a caller that stops using a handle must call Close on it
// (typically via defer), which decrements the channel's readable-handle
// count and auto-closes the channel once it reaches zero.
type Readable[T any] struct {
	ch     *Channel[T]
	closed *sync.Once
}

// Writable is the write-side counterpart of Readable.
type Writable[T any] struct {
	ch     *Channel[T]
	closed *sync.Once
}

// NewChannelPair builds a Channel and returns its initial Readable and
// Writable handle, consuming the one-of-each the Channel starts with.
func NewChannelPair[T any](opts ...ChannelOption[T]) (Readable[T], Writable[T]) {
	ch := NewChannel(opts...)
	return Readable[T]{ch: ch, closed: new(sync.Once)}, Writable[T]{ch: ch, closed: new(sync.Once)}
}

// Dup returns a second, independent Readable handle onto the same
// channel, incrementing its readable-handle count.
func (r Readable[T]) Dup() Readable[T] {
	r.ch.mu.Lock()
	r.ch.readableHandles++
	r.ch.mu.Unlock()
	return Readable[T]{ch: r.ch, closed: new(sync.Once)}
}

// Read returns a promise for the next value (see Channel.read).
func (r Readable[T]) Read() Promise[T] { return r.ch.read() }

// ReadCallback is the callback-based fast path from spec.md section 4.5's
// channel table ("read(on_value, on_close) -> Promise<bool>"): onValue is
// invoked directly with the next value, or onClose with the close cause
// (nil for a clean close) once the channel closes, without a caller
// having to register a continuation on the returned promise itself. If
// onValue returns an error, the readable end is closed with that error
// instead of being left open. The returned promise settles with true if
// a value was delivered, false if the channel was already closed.
func (r Readable[T]) ReadCallback(onValue func(T) error, onClose func(error)) Promise[bool] {
	d := NewDefer[bool]()
	_ = r.Read().registerContinuation(func(e Expect[T]) {
		if e.HasException() {
			var cause error
			var closedErr *ChannelClosedError
			if errors.As(e.Exception(), &closedErr) {
				cause = closedErr.Cause
			}
			if onClose != nil {
				onClose(cause)
			}
			_ = d.SetValue(false)
			return
		}
		if err := onValue(e.Consume()); err != nil {
			r.ch.CloseError(err)
			_ = d.SetException(err)
			return
		}
		_ = d.SetValue(true)
	})
	return d.Promise()
}

// Consume drains the channel, invoking fn for each value; see
// ConsumeChannel for the concurrency-K form.
func (r Readable[T]) Consume(fn func(T) error) Promise[unit] {
	return ConsumeChannel(r, 1, fn)
}

// ReadAll drains every value currently reachable from a clean close into
// a slice, rejecting if the channel instead closes with an error. This is
// spec.md's supplemented Channel.ReadAll convenience (original_source's
// channel consumer helper collects a bounded channel into a vector for
// tests and simple pipelines).
func (r Readable[T]) ReadAll() Promise[[]T] {
	d := NewDefer[[]T]()
	var values []T
	var step func()
	step = func() {
		_ = r.Read().registerContinuation(func(e Expect[T]) {
			if e.HasException() {
				if e.Exception() == ErrChannelClosed {
					_ = d.SetValue(values)
					return
				}
				_ = d.SetException(e.Exception())
				return
			}
			values = append(values, e.Consume())
			step()
		})
	}
	step()
	return d.Promise()
}

// Close releases this handle. Once every Readable handle on the same
// channel has been closed, the channel auto-closes (with no error, per
// spec.md's "last readable-handle drop" rule). Safe to call more than
// once; only the first call has effect.
func (r Readable[T]) Close() {
	r.closed.Do(func() {
		r.ch.mu.Lock()
		r.ch.readableHandles--
		last := r.ch.readableHandles == 0
		r.ch.mu.Unlock()
		if last {
			r.ch.Close()
		}
	})
}

// Dup returns a second, independent Writable handle onto the same
// channel, incrementing its writable-handle count.
func (w Writable[T]) Dup() Writable[T] {
	w.ch.mu.Lock()
	w.ch.writableHandles++
	w.ch.mu.Unlock()
	return Writable[T]{ch: w.ch, closed: new(sync.Once)}
}

// Write posts v; see Channel.Write.
func (w Writable[T]) Write(v T) bool { return w.ch.Write(v) }

// ShouldWrite reports producer-side back-pressure; see Channel.ShouldWrite.
func (w Writable[T]) ShouldWrite() bool { return w.ch.ShouldWrite() }

// SetResumeNotification installs the one-shot resume callback.
func (w Writable[T]) SetResumeNotification(fn func()) { w.ch.SetResumeNotification(fn) }

// CloseChannel closes the channel itself (not just this handle) with an
// optional cause, for a producer that wants to terminate the stream
// explicitly rather than merely dropping its own handle.
func (w Writable[T]) CloseChannel(err error) { w.ch.CloseError(err) }

// Close releases this handle. Once every Writable handle on the same
// channel has been closed, the channel auto-closes with no error (per
// spec.md's "last writable-handle drop" rule) -- readers still drain any
// already-buffered values before observing the close.
func (w Writable[T]) Close() {
	w.closed.Do(func() {
		w.ch.mu.Lock()
		w.ch.writableHandles--
		last := w.ch.writableHandles == 0
		w.ch.mu.Unlock()
		if last {
			w.ch.Close()
		}
	})
}

// Pipe connects r to w: every value read from r is written to w, until r
// closes. A clean close of r closes w cleanly and fulfils the returned
// promise; a close of r with a cause closes w with that cause and rejects
// the returned promise with it. Pipe does not stop when w is closed
// first: writes to a closed w are dropped and reading continues. Per spec.md
// section 4.5, backpressure from the destination pauses the source: the
// next Read is gated on w.ShouldWrite(), resuming via
// w.SetResumeNotification once w drains back below its resume threshold.
func Pipe[T any](r Readable[T], w Writable[T]) Promise[unit] {
	d := NewDefer[unit]()
	var step func()
	step = func() {
		if !w.ShouldWrite() {
			w.SetResumeNotification(step)
			return
		}
		_ = r.Read().registerContinuation(func(e Expect[T]) {
			if e.HasException() {
				if e.Exception() == ErrChannelClosed {
					w.CloseChannel(nil)
					_ = d.SetValue(Void)
					return
				}
				w.CloseChannel(e.Exception())
				_ = d.SetException(e.Exception())
				return
			}
			w.Write(e.Consume())
			step()
		})
	}
	step()
	return d.Promise()
}
