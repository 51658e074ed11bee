package substrate

// ExecutionContext bundles a Dispatcher with the Scheduler (and its
// default Queue) that feeds it, the unit most application code actually
// constructs: "give me somewhere to run tasks" rather than wiring a
// Dispatcher, Scheduler and Queue by hand each time.
type ExecutionContext struct {
	Dispatcher Dispatcher
	Scheduler  Scheduler
	Queue      *Queue
}

// ExecutionContextOption configures NewExecutionContext.
type ExecutionContextOption func(*executionContextConfig)

type executionContextConfig struct {
	priorityScheduler bool
	threadPool        bool
	threadPoolOpts    []ThreadPoolOption
	dispatcherOpts    []DispatcherOption
	queueOpts         []QueueOption
}

// WithPriorityScheduler selects a priority-tiered Scheduler instead of the
// default round-robin one.
func WithPriorityScheduler() ExecutionContextOption {
	return func(c *executionContextConfig) { c.priorityScheduler = true }
}

// WithThreadPool selects a multi-worker Dispatcher instead of the default
// single-goroutine blocking one.
func WithThreadPool(opts ...ThreadPoolOption) ExecutionContextOption {
	return func(c *executionContextConfig) { c.threadPool = true; c.threadPoolOpts = opts }
}

// WithExecutionContextDispatcherOptions passes through DispatcherOptions
// to the blocking dispatcher (ignored if WithThreadPool is also given).
func WithExecutionContextDispatcherOptions(opts ...DispatcherOption) ExecutionContextOption {
	return func(c *executionContextConfig) { c.dispatcherOpts = opts }
}

// WithExecutionContextQueueOptions passes through QueueOptions to the
// context's default Queue.
func WithExecutionContextQueueOptions(opts ...QueueOption) ExecutionContextOption {
	return func(c *executionContextConfig) { c.queueOpts = opts }
}

// NewExecutionContext wires a Queue, a Scheduler owning it, and a
// Dispatcher attached to that Scheduler. The dispatcher is not started;
// call Start for that.
func NewExecutionContext(opts ...ExecutionContextOption) *ExecutionContext {
	cfg := executionContextConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var sched Scheduler
	if cfg.priorityScheduler {
		sched = NewPriorityScheduler()
	} else {
		sched = NewDirectScheduler()
	}

	var disp Dispatcher
	if cfg.threadPool {
		disp = NewThreadPoolDispatcher(cfg.threadPoolOpts...)
	} else {
		disp = NewBlockingDispatcher(cfg.dispatcherOpts...)
	}

	q := NewQueue(cfg.queueOpts...)
	_ = sched.AddQueue(q)
	Attach(sched, disp)

	return &ExecutionContext{Dispatcher: disp, Scheduler: sched, Queue: q}
}

// With settles an already-known value v onto ec's default queue, for the
// common "produce a seed promise to start a chain from" pattern (spec.md
// section 8's scenarios construct their starting promise this way).
func With[T any](ec *ExecutionContext, v T) Promise[T] {
	d := NewDefer[T]()
	ec.Queue.Push(NewTask(func() { _ = d.SetValue(v) }))
	return d.Promise()
}

// Start launches the context's dispatcher. A blocking dispatcher's Start
// occupies the calling goroutine, so callers typically invoke this in its
// own goroutine unless the context is the program's main loop.
func (ec *ExecutionContext) Start() error { return ec.Dispatcher.Start() }

// Shutdown requests termination in the given mode and waits for it.
func (ec *ExecutionContext) Shutdown(mode TerminationMode) Expect[unit] {
	_ = ec.Dispatcher.Terminate(mode)
	return ec.Dispatcher.AwaitTermination()
}
