package substrate

import (
	"sync"
	"time"

	"github.com/parallelq/substrate/internal/metrics"
	"github.com/parallelq/substrate/internal/pool"
)

// taskNode is one link in a Queue's FIFO; nodes are pooled (see
// internal/pool) so that a busy continuation-dispatch loop, which pushes
// one node per resolved promise, does not allocate on every push.
type taskNode struct {
	task Task
	next *taskNode
}

// Queue is an ordered FIFO of tasks with an integer priority. A Queue
// belongs to at most one Scheduler (enforced by Scheduler.AddQueue); push
// is safe for concurrent callers.
type Queue struct {
	mu                  sync.Mutex
	name                string
	priority            int
	head                *taskNode
	tail                *taskNode
	length              int
	owner               Scheduler
	nodes               pool.Pool
	boundedPoolCapacity uint
	depth               metrics.UpDownCounter
	pushed              metrics.Counter
}

// QueueOption configures a Queue at construction time.
type QueueOption func(*Queue)

// WithQueueName sets a diagnostic name; otherwise one is generated.
func WithQueueName(name string) QueueOption {
	return func(q *Queue) { q.name = name }
}

// WithQueuePriority sets the queue's priority (higher runs first under a
// PriorityScheduler; ignored by a DirectScheduler). Must be >= 0.
func WithQueuePriority(priority int) QueueOption {
	return func(q *Queue) { q.priority = priority }
}

// WithQueueMetrics attaches a metrics.Provider to record queue depth and
// push-rate instruments; the default is a no-op provider.
func WithQueueMetrics(p metrics.Provider, name string) QueueOption {
	return func(q *Queue) {
		q.depth = p.UpDownCounter(name + ".depth")
		q.pushed = p.Counter(name + ".pushed")
	}
}

// WithQueueBoundedNodePool caps the queue's FIFO node pool at capacity
// retained objects, using internal/pool's channel-backed bounded pool
// instead of the default unbounded (GC-governed) sync.Pool. Useful for a
// queue expected to run at a roughly known steady-state depth, trading a
// hard ceiling on retained memory for a little more allocation under a
// burst above that ceiling.
func WithQueueBoundedNodePool(capacity uint) QueueOption {
	return func(q *Queue) { q.boundedPoolCapacity = capacity }
}

// NewQueue constructs a Queue. Node objects backing the FIFO are taken
// from a dynamic (sync.Pool-backed) object pool by default, or a
// capacity-bounded one if WithQueueBoundedNodePool is given.
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{
		depth:  metrics.NoOp().UpDownCounter(""),
		pushed: metrics.NoOp().Counter(""),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.name == "" {
		q.name = defaultName("queue")
	}
	if q.boundedPoolCapacity > 0 {
		q.nodes = pool.NewFixed(q.boundedPoolCapacity, func() any { return &taskNode{} })
	} else {
		q.nodes = pool.NewDynamic(func() any { return &taskNode{} })
	}
	return q
}

// Name returns the queue's diagnostic name.
func (q *Queue) Name() string { return q.name }

// Priority returns the queue's priority.
func (q *Queue) Priority() int { return q.priority }

// Len reports the number of tasks currently buffered, for introspection.
// Scheduler has no aggregate depth accessor; depth is read per Queue.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}

// Push appends t to the end of the queue and wakes the owning scheduler's
// dispatcher, if attached.
func (q *Queue) Push(t Task) {
	n := q.nodes.Get().(*taskNode)
	n.task = t
	n.next = nil

	q.mu.Lock()
	if q.tail == nil {
		q.head, q.tail = n, n
	} else {
		q.tail.next = n
		q.tail = n
	}
	q.length++
	q.mu.Unlock()

	q.depth.Add(1)
	q.pushed.Add(1)

	if q.owner != nil {
		q.owner.notify()
	}
}

// popDue removes and returns the next task due to run at now, honoring
// the resolution of spec.md's Open Question #3: a due timed task outranks
// any immediate task within the same queue. Within each of those two
// tiers, order is FIFO.
func (q *Queue) popDue(now time.Time) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == nil {
		return Task{}, false
	}

	// Scan once, remembering the first due timed node and the first
	// immediate node seen (each in FIFO order). A due timed task
	// outranks any immediate task in the same queue (Open Question #3).
	var timedNode, timedPrev *taskNode
	var immediateNode, immediatePrev *taskNode
	var prev *taskNode
	for n := q.head; n != nil; n = n.next {
		if n.task.IsTimed() {
			if timedNode == nil && n.task.Due(now) {
				timedNode, timedPrev = n, prev
			}
		} else if immediateNode == nil {
			immediateNode, immediatePrev = n, prev
		}
		prev = n
	}

	var picked, pickedPrev *taskNode
	switch {
	case timedNode != nil:
		picked, pickedPrev = timedNode, timedPrev
	case immediateNode != nil:
		picked, pickedPrev = immediateNode, immediatePrev
	default:
		return Task{}, false
	}

	if pickedPrev == nil {
		q.head = picked.next
	} else {
		pickedPrev.next = picked.next
	}
	if picked == q.tail {
		q.tail = pickedPrev
	}
	q.length--

	t := picked.task
	picked.task = Task{}
	picked.next = nil
	q.nodes.Put(picked)

	q.depth.Add(-1)
	return t, true
}

// nextDeadline returns the earliest WaitUntil among queued-but-not-yet-due
// timed tasks, used by a dispatcher to size its sleep when no task is
// currently due.
func (q *Queue) nextDeadline(now time.Time) (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var earliest time.Time
	found := false
	for n := q.head; n != nil; n = n.next {
		at, timed := n.task.WaitUntil()
		if !timed || !at.After(now) {
			continue
		}
		if !found || at.Before(earliest) {
			earliest = at
			found = true
		}
	}
	return earliest, found
}

// drainAll empties the queue, returning every task it held in FIFO order,
// for a caller that is dropping them rather than running them
// (TerminationMode Annihilate; see Task.Abandon).
func (q *Queue) drainAll() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	var tasks []Task
	for n := q.head; n != nil; {
		tasks = append(tasks, n.task)
		next := n.next
		n.task = Task{}
		n.next = nil
		q.nodes.Put(n)
		n = next
	}
	if len(tasks) > 0 {
		q.depth.Add(-int64(len(tasks)))
	}
	q.head, q.tail, q.length = nil, nil, 0
	return tasks
}

func (q *Queue) setOwner(s Scheduler) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.owner != nil && q.owner != s {
		return ErrQueueOwned
	}
	q.owner = s
	return nil
}
