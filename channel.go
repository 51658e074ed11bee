package substrate

import (
	"sync"

	"github.com/parallelq/substrate/internal/metrics"
)

// Channel is a bounded, back-pressured, multi-producer/multi-consumer
// FIFO. Values are delivered to readers in writer order; if a reader is
// already waiting when a value is written, it is handed directly to the
// longest-waiting reader instead of being buffered.
type Channel[T any] struct {
	mu              sync.Mutex
	capacity        int
	resumeThreshold int
	queue           *Queue // default queue a read()'s promise resolves on

	buf     []T
	readers []*Defer[T] // FIFO wait list of pending read() calls

	closed   bool
	closeErr error

	paused           bool
	resumeNotify     func()
	resumeNotifyOnce bool

	readableHandles int
	writableHandles int

	depth  metrics.UpDownCounter
	pausedGauge metrics.UpDownCounter
}

// ChannelOption configures a Channel at construction.
type ChannelOption[T any] func(*Channel[T])

// WithChannelCapacity sets the buffer capacity N (required by spec,
// defaulted to 1 here if never set so a zero-value construction is still
// usable).
func WithChannelCapacity[T any](n int) ChannelOption[T] {
	return func(c *Channel[T]) { c.capacity = n }
}

// WithChannelResumeThreshold sets R, the buffered-item count below which
// the paused producer signal clears. Default is 3N/4, rounded up.
func WithChannelResumeThreshold[T any](r int) ChannelOption[T] {
	return func(c *Channel[T]) { c.resumeThreshold = r }
}

// WithChannelQueue sets the default queue a read()'s promise resolves on.
func WithChannelQueue[T any](q *Queue) ChannelOption[T] {
	return func(c *Channel[T]) { c.queue = q }
}

// WithChannelMetrics attaches a metrics.Provider reporting buffered-item
// count and paused state as gauges.
func WithChannelMetrics[T any](p metrics.Provider, name string) ChannelOption[T] {
	return func(c *Channel[T]) {
		c.depth = p.UpDownCounter(name + ".buffered")
		c.pausedGauge = p.UpDownCounter(name + ".paused")
	}
}

// NewChannel constructs a Channel and returns it with one readable handle
// and one writable handle already held (see Readable/Writable); callers
// that need additional independent handles call Dup on either.
func NewChannel[T any](opts ...ChannelOption[T]) *Channel[T] {
	c := &Channel[T]{
		capacity:        1,
		depth:           metrics.NoOp().UpDownCounter(""),
		pausedGauge:     metrics.NoOp().UpDownCounter(""),
		readableHandles: 1,
		writableHandles: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.capacity < 1 {
		c.capacity = 1
	}
	if c.resumeThreshold <= 0 || c.resumeThreshold > c.capacity {
		c.resumeThreshold = (c.capacity*3 + 3) / 4
		if c.resumeThreshold < 1 {
			c.resumeThreshold = 1
		}
	}
	return c
}

// SetResumeNotification installs the one-shot callback fired when the
// buffered count drops back below the resume threshold after
// having been paused. Only one notification is ever pending; installing
// a new one before the previous fired replaces it.
func (c *Channel[T]) SetResumeNotification(fn func()) {
	c.mu.Lock()
	c.resumeNotify = fn
	c.resumeNotifyOnce = false
	c.mu.Unlock()
}

// ShouldWrite reports whether a producer should keep writing without
// throttling itself: false once the buffer has reached capacity, until
// consumption brings it back below the resume threshold.
func (c *Channel[T]) ShouldWrite() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.paused
}

// Write posts a value. Returns false if the channel is already closed.
// If a reader is already waiting, the value is handed to it directly
// (oldest waiter first) without ever entering the buffer; otherwise it is
// appended to the buffer, which may push the channel into the paused
// state.
func (c *Channel[T]) Write(v T) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}

	if len(c.readers) > 0 {
		d := c.readers[0]
		c.readers = c.readers[1:]
		c.mu.Unlock()
		_ = d.SetValue(v)
		return true
	}

	c.buf = append(c.buf, v)
	c.depth.Add(1)
	if len(c.buf) >= c.capacity {
		c.paused = true
		c.pausedGauge.Add(1)
	}
	c.mu.Unlock()
	return true
}

// Close marks the channel closed with no error. Any readers already
// waiting are resolved with ErrChannelClosed; further writes fail.
// Idempotent: only the first call has any effect. If the channel is
// paused at close time, the pending resume notification (if any has not
// fired yet) fires once; each installed notification fires at most once.
func (c *Channel[T]) Close() { c.CloseError(nil) }

// CloseError is Close with an explicit cause surfaced to every
// subsequent reader (and to any reader already waiting).
func (c *Channel[T]) CloseError(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.closeErr = err
	readers := c.readers
	c.readers = nil

	var notify func()
	if c.paused {
		c.paused = false
		c.pausedGauge.Add(-1)
		if !c.resumeNotifyOnce {
			notify = c.resumeNotify
			c.resumeNotifyOnce = true
		}
	}
	c.mu.Unlock()

	closedErr := newChannelClosedError(err)
	for _, d := range readers {
		_ = d.SetException(closedErr)
	}
	if notify != nil {
		notify()
	}
}

// read is the shared implementation behind Readable.Read: it returns a
// Promise that resolves with the next value, or rejects with
// ErrChannelClosed (or the cause given to CloseError) once the channel
// has both closed and drained.
func (c *Channel[T]) read() Promise[T] {
	c.mu.Lock()

	if len(c.buf) > 0 {
		v := c.buf[0]
		c.buf = c.buf[1:]
		c.depth.Add(-1)

		var notify func()
		if c.paused && len(c.buf) < c.resumeThreshold {
			c.paused = false
			c.pausedGauge.Add(-1)
			if !c.resumeNotifyOnce {
				notify = c.resumeNotify
				c.resumeNotifyOnce = true
			}
		}
		q := c.queue
		c.mu.Unlock()
		if notify != nil {
			notify()
		}
		d := NewDefer[T]()
		if q != nil {
			q.Push(NewTask(func() { _ = d.SetValue(v) }))
		} else {
			_ = d.SetValue(v)
		}
		return d.Promise()
	}

	if c.closed {
		err := newChannelClosedError(c.closeErr)
		c.mu.Unlock()
		return Rejected[T](err)
	}

	d := NewDefer[T]()
	c.readers = append(c.readers, d)
	c.mu.Unlock()
	return d.Promise()
}

// Len reports the number of values currently buffered (not counting
// pending reader wait-list entries).
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// IsClosed reports whether Close/CloseError has been called.
func (c *Channel[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
