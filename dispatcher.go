package substrate

import (
	"sync"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
)

func init() {
	// Best effort: align runtime.GOMAXPROCS with cgroup CPU limits before
	// any thread pool sizes itself off runtime.GOMAXPROCS. Silenced logger: a
	// dispatcher's own logger reports the result, not this library.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
}

// DispatcherState is the lifecycle stage of a Dispatcher.
type DispatcherState int

const (
	DispatcherCreated DispatcherState = iota
	DispatcherStarted
	DispatcherTerminating
	DispatcherTerminated
)

func (s DispatcherState) String() string {
	switch s {
	case DispatcherCreated:
		return "created"
	case DispatcherStarted:
		return "started"
	case DispatcherTerminating:
		return "terminating"
	case DispatcherTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// TerminationMode controls how a Dispatcher winds down on Terminate.
type TerminationMode int

const (
	// Linger keeps fetching and running due tasks until the attached
	// scheduler reports none due and none pending (a future timed task),
	// i.e. it drains the backlog before stopping.
	Linger TerminationMode = iota
	// Annihilate stops as soon as possible: no further task is fetched
	// once Terminate is called, though a task already mid-run (on a
	// thread pool dispatcher) is allowed to finish, since Go has no safe
	// preemption point. Every task still sitting in an attached queue is
	// dropped rather than run, and its Abandon hook (if any) is invoked
	// in its place, so a continuation task's destination promise settles
	// with an abandoned error instead of hanging forever.
	Annihilate
)

// taskFetcher is installed by a Scheduler via Attach (see scheduler.go). It
// returns either a due task (ok=true), or, when none is due, an optional
// wake-up deadline for the caller to sleep until.
type taskFetcher func(now time.Time) (task Task, ok bool, wakeAt time.Time, hasWakeAt bool)

// Dispatcher pulls tasks from an attached Scheduler and runs them. Two
// implementations are provided: NewBlockingDispatcher (runs on the calling
// goroutine) and NewThreadPoolDispatcher (N persistent worker goroutines).
type Dispatcher interface {
	// Start begins fetching and running tasks. A blocking dispatcher's
	// Start occupies the calling goroutine until termination; a thread
	// pool dispatcher's Start returns immediately once workers are live.
	Start() error

	// Terminate requests shutdown in the given mode. Idempotent.
	Terminate(mode TerminationMode) error

	// AwaitTermination blocks until the dispatcher has fully stopped.
	AwaitTermination() Expect[unit]

	// Notify wakes a sleeping dispatcher to re-poll its fetcher; Attach
	// wires this as the Scheduler's wake callback.
	Notify()

	// State reports the current lifecycle stage.
	State() DispatcherState

	// Name returns the dispatcher's diagnostic name.
	Name() string

	setTaskFetcher(f taskFetcher)
	setTaskDrainer(f func() []Task)
}

// DispatcherOption configures a Dispatcher at construction time.
type DispatcherOption func(*dispatcherCore)

// WithDispatcherName sets a diagnostic name; otherwise one is generated.
func WithDispatcherName(name string) DispatcherOption {
	return func(c *dispatcherCore) { c.name = name }
}

// wakeSignal is a single-writer-many-reader condition variable with timed
// wait, used by a dispatcher to sleep between empty polls without busy
// looping, waking either on Notify or on a scheduled deadline.
type wakeSignal struct {
	mu   sync.Mutex
	cond *sync.Cond
	gen  uint64
}

func newWakeSignal() *wakeSignal {
	w := &wakeSignal{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *wakeSignal) broadcast() {
	w.mu.Lock()
	w.gen++
	w.mu.Unlock()
	w.cond.Broadcast()
}

// waitUntil blocks until broadcast is called, deadline elapses (if
// hasDeadline), or the dispatcher is asked to stop via stopped.
func (w *wakeSignal) waitUntil(deadline time.Time, hasDeadline bool, stopped func() bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	startGen := w.gen

	if !hasDeadline {
		for w.gen == startGen && !stopped() {
			w.cond.Wait()
		}
		return
	}

	timer := time.AfterFunc(time.Until(deadline), w.broadcast)
	defer timer.Stop()
	for w.gen == startGen && !stopped() && time.Now().Before(deadline) {
		w.cond.Wait()
	}
}

// dispatcherCore holds the lifecycle state shared by both dispatcher
// flavors: name, state machine, fetcher hook, and wake signal.
type dispatcherCore struct {
	mu      sync.Mutex
	name    string
	state   DispatcherState
	mode    TerminationMode
	fetcher taskFetcher
	drainer func() []Task
	wake    *wakeSignal
	done    chan struct{}
}

func newDispatcherCore(opts []DispatcherOption) dispatcherCore {
	c := dispatcherCore{
		state: DispatcherCreated,
		wake:  newWakeSignal(),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.name == "" {
		c.name = defaultName("dispatcher")
	}
	return c
}

func (c *dispatcherCore) Name() string { return c.name }

func (c *dispatcherCore) State() DispatcherState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *dispatcherCore) setTaskFetcher(f taskFetcher) {
	c.mu.Lock()
	c.fetcher = f
	c.mu.Unlock()
}

func (c *dispatcherCore) setTaskDrainer(f func() []Task) {
	c.mu.Lock()
	c.drainer = f
	c.mu.Unlock()
}

// drainRemaining empties the attached scheduler's queues and abandons
// every task still sitting in them, rather than running them: the
// Annihilate path's "not-yet-started tasks are dropped, their unresolved
// promises enter the abandoned-error state" guarantee. Safe to call from
// more than one worker concurrently; draining an already-empty queue is a
// no-op.
func (c *dispatcherCore) drainRemaining() {
	c.mu.Lock()
	f := c.drainer
	c.mu.Unlock()
	if f == nil {
		return
	}
	for _, t := range f() {
		t.Abandon()
	}
}

func (c *dispatcherCore) Notify() { c.wake.broadcast() }

func (c *dispatcherCore) stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == DispatcherTerminating || c.state == DispatcherTerminated
}

func (c *dispatcherCore) terminationMode() TerminationMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *dispatcherCore) fetch(now time.Time) (Task, bool, time.Time, bool) {
	c.mu.Lock()
	f := c.fetcher
	c.mu.Unlock()
	if f == nil {
		return Task{}, false, time.Time{}, false
	}
	return f(now)
}

func (c *dispatcherCore) transitionStart() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != DispatcherCreated {
		return ErrDispatcherStarted
	}
	c.state = DispatcherStarted
	return nil
}

func (c *dispatcherCore) transitionTerminate(mode TerminationMode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == DispatcherTerminating || c.state == DispatcherTerminated {
		return false
	}
	c.mode = mode
	c.state = DispatcherTerminating
	return true
}

func (c *dispatcherCore) transitionTerminated() {
	c.mu.Lock()
	c.state = DispatcherTerminated
	c.mu.Unlock()
	close(c.done)
	c.wake.broadcast()
}

func (c *dispatcherCore) awaitTermination() Expect[unit] {
	<-c.done
	return FulfillVoid()
}

func runTaskSafely(name string, t Task) {
	defer func() {
		if r := recover(); r != nil {
			reportUncaught(panicToError(r), name)
		}
	}()
	t.Run()
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return ErrInvalidException
}
