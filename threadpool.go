package substrate

import (
	"runtime"
	"sync"
	"time"

	"github.com/parallelq/substrate/internal/metrics"
)

// ThreadPoolConfig holds direct-struct construction parameters for a
// thread-pool Dispatcher, mirroring the teacher's dual Config/options
// construction surface (workers.Config alongside workers.Option).
type ThreadPoolConfig struct {
	// Name is the dispatcher's diagnostic name. Empty generates one.
	Name string

	// Workers is the worker-goroutine count. Zero or negative falls back
	// to runtime.GOMAXPROCS(0) (after automaxprocs has adjusted it).
	Workers int

	// Metrics, if non-nil, attaches a metrics.Provider reporting the
	// number of currently busy workers under the given name.
	Metrics     metrics.Provider
	MetricsName string
}

// ThreadPoolOption configures a thread-pool Dispatcher at construction.
type ThreadPoolOption func(*threadPoolDispatcher)

// WithThreadPoolWorkers sets the worker-goroutine count. The default is
// runtime.GOMAXPROCS(0) (after automaxprocs has adjusted it for any
// container CPU quota), i.e. one worker per soft core.
func WithThreadPoolWorkers(n int) ThreadPoolOption {
	return func(d *threadPoolDispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithThreadPoolMetrics attaches a metrics.Provider reporting the number
// of currently busy workers.
func WithThreadPoolMetrics(p metrics.Provider, name string) ThreadPoolOption {
	return func(d *threadPoolDispatcher) {
		d.active = p.UpDownCounter(name + ".active_workers")
	}
}

// withThreadPoolCoreOption adapts a DispatcherOption so both option kinds
// can be accepted by NewThreadPoolDispatcher.
func withThreadPoolCoreOption(opt DispatcherOption) ThreadPoolOption {
	return func(d *threadPoolDispatcher) { opt(&d.dispatcherCore) }
}

// threadPoolDispatcher runs N persistent worker goroutines, each looping
// identically: fetch a due task, run it, or sleep until woken.
type threadPoolDispatcher struct {
	dispatcherCore
	workers int
	active  metrics.UpDownCounter
	wg      sync.WaitGroup
}

// NewThreadPoolDispatcher builds a Dispatcher backed by a fixed pool of
// worker goroutines; Start returns once all workers are live.
func NewThreadPoolDispatcher(opts ...ThreadPoolOption) Dispatcher {
	d := &threadPoolDispatcher{
		dispatcherCore: newDispatcherCore(nil),
		workers:        runtime.GOMAXPROCS(0),
		active:         metrics.NoOp().UpDownCounter(""),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers < 1 {
		d.workers = 1
	}
	return d
}

// NewThreadPoolDispatcherWithName is a convenience combining a
// DispatcherOption (for the name) with ThreadPoolOptions.
func NewThreadPoolDispatcherWithName(name string, opts ...ThreadPoolOption) Dispatcher {
	all := append([]ThreadPoolOption{withThreadPoolCoreOption(WithDispatcherName(name))}, opts...)
	return NewThreadPoolDispatcher(all...)
}

// NewThreadPoolDispatcherFromConfig builds a thread-pool Dispatcher
// directly from a ThreadPoolConfig rather than functional options.
//
// Deprecated: this Config-based constructor is kept for callers migrating
// from a direct-struct configuration style; prefer
// NewThreadPoolDispatcher(opts...) / NewThreadPoolDispatcherWithName.
func NewThreadPoolDispatcherFromConfig(cfg *ThreadPoolConfig) Dispatcher {
	if cfg == nil {
		cfg = &ThreadPoolConfig{}
	}
	var opts []ThreadPoolOption
	if cfg.Name != "" {
		opts = append(opts, withThreadPoolCoreOption(WithDispatcherName(cfg.Name)))
	}
	if cfg.Workers > 0 {
		opts = append(opts, WithThreadPoolWorkers(cfg.Workers))
	}
	if cfg.Metrics != nil {
		opts = append(opts, WithThreadPoolMetrics(cfg.Metrics, cfg.MetricsName))
	}
	return NewThreadPoolDispatcher(opts...)
}

func (d *threadPoolDispatcher) Start() error {
	if err := d.transitionStart(); err != nil {
		return err
	}
	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go d.runWorker()
	}
	go func() {
		d.wg.Wait()
		d.transitionTerminated()
	}()
	return nil
}

func (d *threadPoolDispatcher) runWorker() {
	defer d.wg.Done()
	for {
		if d.State() == DispatcherTerminating && d.terminationMode() == Annihilate {
			d.drainRemaining()
			return
		}

		now := time.Now()
		t, ok, wakeAt, hasWake := d.fetch(now)
		if ok {
			d.active.Add(1)
			runTaskSafely(d.name, t)
			d.active.Add(-1)
			continue
		}

		if d.State() == DispatcherTerminating && !hasWake {
			return
		}

		d.wake.waitUntil(wakeAt, hasWake, d.stopped)
	}
}

func (d *threadPoolDispatcher) Terminate(mode TerminationMode) error {
	d.transitionTerminate(mode)
	d.wake.broadcast()
	return nil
}

func (d *threadPoolDispatcher) AwaitTermination() Expect[unit] {
	return d.awaitTermination()
}
