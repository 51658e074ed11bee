package pool

import "sync"

// NewDynamic wraps sync.Pool: size grows and shrinks with demand, objects
// may be collected between GC cycles. This is the default, matching the
// teacher's own dynamic-pool default.
func NewDynamic(newFn func() any) Pool {
	return &sync.Pool{New: newFn}
}
