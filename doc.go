// Package substrate is a concurrency substrate built from three layers:
// a promise/expect value-or-error propagation system, a bounded
// back-pressured multi-producer/multi-consumer channel, and a
// cooperative task-execution layer (queues, schedulers, a blocking
// dispatcher, and a thread-pool dispatcher) that drives promise
// continuations and channel wake-ups.
//
// Core types
//   - Expect[T]: a settled value-or-error, never both.
//   - Defer[T] / Promise[T]: the writable and read-only halves of a
//     future value. Then/ThenPromise/Fail/FailPromise/Tap/TapError/
//     Finally/Done are free functions rather than Promise methods,
//     since a Go method cannot introduce the new type parameter a
//     transformation from Promise[T] to Promise[U] needs.
//   - Channel[T] / Readable[T] / Writable[T]: a bounded FIFO with
//     reader wait list and writer back-pressure; Readable and Writable
//     are independently cloneable handles, each closed explicitly
//     (Go has no deterministic destructors to drive an automatic
//     last-handle-drop close).
//   - Task / Queue / Scheduler / Dispatcher: a Task is a zero-argument
//     callable with an optional deadline; a Queue is an ordered FIFO of
//     tasks; a Scheduler fans one or more Queues out to a Dispatcher,
//     which actually runs them, either on the calling goroutine
//     (NewBlockingDispatcher) or across a fixed worker pool
//     (NewThreadPoolDispatcher).
//   - ExecutionContext bundles a Queue, Scheduler and Dispatcher
//     together for the common case of just needing somewhere to run
//     tasks and resolve promises.
//
// Errors
// Sentinel errors (ErrChannelClosed, ErrAbandoned, ErrDeferAlreadySettled,
// ...) are declared in errors.go and are meant to be compared with
// errors.Is; ChannelClosedError carries its cause via Unwrap, and
// CombinedFailureError exposes every input's outcome in its Outcomes field.
//
// Logging
// This package logs on its own initiative only when a promise chain
// reaches Done with an unhandled error, a dispatcher recovers a panic
// from a task it ran, or a Defer is abandoned without being resolved.
// All of these go through logging.go's zerolog logger, replaceable via
// SetLogger.
package substrate
