// Package pool adapts github.com/ygrebnov/workers' pool.Pool abstraction
// (originally used to reuse per-task worker wrapper structs) to a
// different hot path: reusing the linked-list node objects the queue
// allocates on every Push, so a busy continuation-dispatch loop does not
// allocate one node per scheduled continuation.
package pool

// Pool is a generic object pool: Get returns a reusable instance (or a new
// one if none is available), Put returns it for reuse.
type Pool interface {
	Get() any
	Put(any)
}
