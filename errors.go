package substrate

import (
	"errors"
	"fmt"
)

// Namespace prefixes every sentinel error message, mirroring the teacher
// library's convention of a single namespaced error set per package.
const Namespace = "substrate"

var (
	// ErrChannelClosed is the error a read observes on a channel that has
	// been closed with no explicit error (a write to a closed channel
	// reports it by returning false instead).
	ErrChannelClosed = errors.New(Namespace + ": channel closed")

	// ErrBadFunctionCall is raised when an uninitialised function
	// container (Unique/Shared) is invoked, or invoked more than once
	// in the Unique case.
	ErrBadFunctionCall = errors.New(Namespace + ": bad function call")

	// ErrInvalidException is raised by Refuse when called with a nil error.
	ErrInvalidException = errors.New(Namespace + ": invalid exception: refuse called with nil error")

	// ErrAbandoned is the terminal error a PromiseState resolves with when
	// its Defer is dropped (explicitly, via Abandon) without ever calling
	// a terminal setter.
	ErrAbandoned = errors.New(Namespace + ": promise abandoned before being resolved")

	// ErrDeferAlreadySettled is a programming-error contract violation:
	// a second terminal setter call on a Defer.
	ErrDeferAlreadySettled = errors.New(Namespace + ": defer already settled")

	// ErrPromiseAlreadyConsumed is a programming-error contract violation:
	// a unique Promise registered with a second continuation.
	ErrPromiseAlreadyConsumed = errors.New(Namespace + ": unique promise already consumed")

	// ErrDispatcherStarted/ErrDispatcherNotRunning guard the dispatcher
	// state machine's Created -> Started -> Terminating -> Terminated path.
	ErrDispatcherStarted    = errors.New(Namespace + ": dispatcher already started")
	ErrDispatcherNotRunning = errors.New(Namespace + ": dispatcher not running")

	// ErrQueueOwned is raised by Scheduler.AddQueue when a queue already
	// belongs to another scheduler.
	ErrQueueOwned = errors.New(Namespace + ": queue already owned by a scheduler")
)

// ChannelClosedError carries an optional underlying cause supplied to
// Writable.CloseChannel(err) or Channel.CloseError(err). Readers observe it
// via errors.As; errors.Is against
// ErrChannelClosed also matches (Unwrap chains to ErrChannelClosed when no
// cause is set, otherwise to the cause).
type ChannelClosedError struct {
	Cause error
}

func (e *ChannelClosedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: channel closed: %v", Namespace, e.Cause)
	}
	return ErrChannelClosed.Error()
}

func (e *ChannelClosedError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrChannelClosed
}

func (e *ChannelClosedError) Is(target error) bool {
	return target == ErrChannelClosed
}

// newChannelClosedError builds the error a reader/writer observes once a
// channel is closed; err may be nil, in which case ErrChannelClosed itself
// is returned so callers can compare with errors.Is without indirection.
func newChannelClosedError(err error) error {
	if err == nil {
		return ErrChannelClosed
	}
	return &ChannelClosedError{Cause: err}
}

// BadFunctionCallError carries the call site of an invalid UniqueFunc or
// SharedFunc invocation (an uninitialised container, or a UniqueFunc
// invoked a second time). Unwraps to ErrBadFunctionCall.
type BadFunctionCallError struct {
	Origin string
}

func (e *BadFunctionCallError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("%s (at %s)", ErrBadFunctionCall.Error(), e.Origin)
	}
	return ErrBadFunctionCall.Error()
}

func (e *BadFunctionCallError) Unwrap() error { return ErrBadFunctionCall }

func (e *BadFunctionCallError) Is(target error) bool { return target == ErrBadFunctionCall }

// InvalidExceptionError is what Refuse builds in place of a nil error, so
// the call site that tried to refuse with no error is still recoverable
// from the resulting Expect. Unwraps to ErrInvalidException.
type InvalidExceptionError struct {
	Origin string
}

func (e *InvalidExceptionError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("%s (at %s)", ErrInvalidException.Error(), e.Origin)
	}
	return ErrInvalidException.Error()
}

func (e *InvalidExceptionError) Unwrap() error { return ErrInvalidException }

func (e *InvalidExceptionError) Is(target error) bool { return target == ErrInvalidException }

// AbandonedError carries the call site of a Defer.Abandon call, or the
// empty origin when a queued continuation task was dropped rather than
// explicitly abandoned by user code. Unwraps to ErrAbandoned.
type AbandonedError struct {
	Origin string
}

func (e *AbandonedError) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("%s (at %s)", ErrAbandoned.Error(), e.Origin)
	}
	return ErrAbandoned.Error()
}

func (e *AbandonedError) Unwrap() error { return ErrAbandoned }

func (e *AbandonedError) Is(target error) bool { return target == ErrAbandoned }

// CombinedFailureError is the aggregate carrier produced by the vector form
// of All: one slot per input, in input order, regardless of which ones
// succeeded.
type CombinedFailureError[T any] struct {
	Outcomes []Expect[T]
}

func (e *CombinedFailureError[T]) Error() string {
	failed := 0
	for _, o := range e.Outcomes {
		if o.HasException() {
			failed++
		}
	}
	return fmt.Sprintf("%s: combined failure: %d/%d inputs failed", Namespace, failed, len(e.Outcomes))
}

// origin captures a lightweight call-site reference for an error carrier.
// Formatting/symbolization of this is explicitly out of scope for the core
// (spec.md Design Notes delegates stacktrace formatting to a platform
// abstraction module); origin only records enough to let such a module
// resolve a human-readable location later.
type origin struct {
	file string
	line int
}

func (o origin) String() string {
	if o.file == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", o.file, o.line)
}
