package substrate

import "time"

// Task is a zero-argument callable plus an optional earliest-execution
// deadline, exactly spec.md's Task entity. A Task with a zero WaitUntil
// is immediate.
type Task struct {
	fn        func()
	waitUntil time.Time
	onAbandon func()
}

// NewTask builds an immediate Task.
func NewTask(fn func()) Task {
	return Task{fn: fn}
}

// NewTimedTask builds a Task that must not execute before at.
func NewTimedTask(fn func(), at time.Time) Task {
	return Task{fn: fn, waitUntil: at}
}

// NewTaskWithAbandon builds an immediate Task that carries an abandonment
// hook: if a dispatcher drops this task instead of running it (spec.md
// section 5's terminate(annihilate) dropping not-yet-started tasks),
// Abandon is called instead of Run, so a task that represents a promise
// continuation can settle its destination with an abandoned error rather
// than leaving it pending forever.
func NewTaskWithAbandon(fn func(), onAbandon func()) Task {
	return Task{fn: fn, onAbandon: onAbandon}
}

// IsTimed reports whether this Task carries an execution deadline, whether
// that deadline is still in the future or already past.
func (t Task) IsTimed() bool { return !t.waitUntil.IsZero() }

// Due reports whether t may execute at now: immediate tasks are always
// due; timed tasks are due once now is at or after WaitUntil.
func (t Task) Due(now time.Time) bool {
	return t.waitUntil.IsZero() || !t.waitUntil.After(now)
}

// WaitUntil returns the task's deadline and whether one is set.
func (t Task) WaitUntil() (time.Time, bool) {
	return t.waitUntil, !t.waitUntil.IsZero()
}

// Run executes the task's callable. Panics are not recovered here: the
// dispatcher worker loop is the one place panics are caught, so every
// Task -- whether built by user code or by a promise continuation -- gets
// uniform panic handling regardless of where it runs.
func (t Task) Run() {
	if t.fn != nil {
		t.fn()
	}
}

// Abandon is called in place of Run for a task dropped by a dispatcher
// terminating in Annihilate mode, instead of being executed.
func (t Task) Abandon() {
	if t.onAbandon != nil {
		t.onAbandon()
	}
}
