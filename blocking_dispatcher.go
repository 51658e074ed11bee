package substrate

import "time"

// blockingDispatcher runs its fetch-run loop on the calling goroutine:
// Start does not return until Terminate has been called and the current
// task (if any) has finished.
type blockingDispatcher struct {
	dispatcherCore
}

// NewBlockingDispatcher builds a Dispatcher whose Start occupies the
// calling goroutine, matching spec.md's single-thread run-loop dispatcher.
func NewBlockingDispatcher(opts ...DispatcherOption) Dispatcher {
	return &blockingDispatcher{dispatcherCore: newDispatcherCore(opts)}
}

func (d *blockingDispatcher) Start() error {
	if err := d.transitionStart(); err != nil {
		return err
	}
	d.loop()
	return nil
}

func (d *blockingDispatcher) loop() {
	for {
		now := time.Now()

		if d.State() == DispatcherTerminating && d.terminationMode() == Annihilate {
			d.drainRemaining()
			d.transitionTerminated()
			return
		}

		t, ok, wakeAt, hasWake := d.fetch(now)
		if ok {
			runTaskSafely(d.name, t)
			continue
		}

		// Nothing due. Under Linger, an empty fetch with no pending
		// future task means the backlog has fully drained.
		if d.State() == DispatcherTerminating && !hasWake {
			d.transitionTerminated()
			return
		}

		d.wake.waitUntil(wakeAt, hasWake, d.stopped)
	}
}

func (d *blockingDispatcher) Terminate(mode TerminationMode) error {
	d.transitionTerminate(mode)
	d.wake.broadcast()
	return nil
}

func (d *blockingDispatcher) AwaitTermination() Expect[unit] {
	return d.awaitTermination()
}
