package substrate

import (
	"sort"
	"sync"
	"time"
)

// Scheduler fans tasks from one or more queues out to a backing
// dispatcher. Two work-conserving implementations are provided:
// NewDirectScheduler (round-robin) and NewPriorityScheduler (higher
// priority queues drain before lower ones).
type Scheduler interface {
	// AddQueue attaches q to this scheduler. Returns ErrQueueOwned if q
	// already belongs to a different scheduler.
	AddQueue(q *Queue) error

	// next returns the next due task across all attached queues, or
	// false if none is currently due.
	next(now time.Time) (Task, bool)

	// nextDeadline returns the earliest deadline among due-in-the-future
	// timed tasks across all attached queues, for a dispatcher to size
	// its sleep when next returns false.
	nextDeadline(now time.Time) (time.Time, bool)

	// notify is called by a Queue on Push to wake a dispatcher attached
	// via Attach.
	notify()

	// drainAll empties every attached queue and returns every task they
	// held, for a dispatcher terminating in Annihilate mode to abandon
	// rather than run.
	drainAll() []Task
}

// Attach wires sch as the task source for d: whenever d's worker(s) have
// no task to run, they call into sch via the fetcher hook installed here,
// and Queue.Push on any of sch's queues wakes d.
func Attach(sch Scheduler, d Dispatcher) {
	d.setTaskFetcher(func(now time.Time) (Task, bool, time.Time, bool) {
		if t, ok := sch.next(now); ok {
			return t, true, time.Time{}, false
		}
		wake, has := sch.nextDeadline(now)
		return Task{}, false, wake, has
	})
	d.setTaskDrainer(sch.drainAll)
	if a, ok := sch.(interface{ setNotifier(func()) }); ok {
		a.setNotifier(d.Notify)
	}
}

type baseScheduler struct {
	mu       sync.Mutex
	notifyFn func()
}

func (b *baseScheduler) setNotifier(fn func()) {
	b.mu.Lock()
	b.notifyFn = fn
	b.mu.Unlock()
}

func (b *baseScheduler) notify() {
	b.mu.Lock()
	fn := b.notifyFn
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// directScheduler is a trivial round-robin scheduler across its queues,
// ignoring priority.
type directScheduler struct {
	baseScheduler
	queues []*Queue
	cursor int
}

// NewDirectScheduler builds a work-conserving round-robin Scheduler.
func NewDirectScheduler() Scheduler {
	return &directScheduler{}
}

func (s *directScheduler) AddQueue(q *Queue) error {
	if err := q.setOwner(s); err != nil {
		return err
	}
	s.mu.Lock()
	s.queues = append(s.queues, q)
	s.mu.Unlock()
	return nil
}

func (s *directScheduler) next(now time.Time) (Task, bool) {
	s.mu.Lock()
	queues := append([]*Queue(nil), s.queues...)
	cursor := s.cursor
	s.mu.Unlock()

	n := len(queues)
	for i := 0; i < n; i++ {
		idx := (cursor + i) % n
		if t, ok := queues[idx].popDue(now); ok {
			s.mu.Lock()
			s.cursor = (idx + 1) % n
			s.mu.Unlock()
			return t, true
		}
	}
	return Task{}, false
}

func (s *directScheduler) nextDeadline(now time.Time) (time.Time, bool) {
	s.mu.Lock()
	queues := append([]*Queue(nil), s.queues...)
	s.mu.Unlock()
	return earliestDeadline(queues, now)
}

func (s *directScheduler) drainAll() []Task {
	s.mu.Lock()
	queues := append([]*Queue(nil), s.queues...)
	s.mu.Unlock()
	var all []Task
	for _, q := range queues {
		all = append(all, q.drainAll()...)
	}
	return all
}

// priorityScheduler drains all due tasks from its highest-priority
// non-empty queue before considering any lower-priority queue; queues of
// equal priority are drained round-robin.
type priorityScheduler struct {
	baseScheduler
	byPriority map[int][]*Queue
	cursor     map[int]int
}

// NewPriorityScheduler builds a work-conserving, strictly priority-ordered
// Scheduler: no task from a lower-priority queue runs while any task from
// a higher-priority queue is eligible.
func NewPriorityScheduler() Scheduler {
	return &priorityScheduler{
		byPriority: make(map[int][]*Queue),
		cursor:     make(map[int]int),
	}
}

func (s *priorityScheduler) AddQueue(q *Queue) error {
	if err := q.setOwner(s); err != nil {
		return err
	}
	s.mu.Lock()
	s.byPriority[q.Priority()] = append(s.byPriority[q.Priority()], q)
	s.mu.Unlock()
	return nil
}

func (s *priorityScheduler) sortedPriorities() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps := make([]int, 0, len(s.byPriority))
	for p := range s.byPriority {
		ps = append(ps, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ps)))
	return ps
}

func (s *priorityScheduler) next(now time.Time) (Task, bool) {
	for _, p := range s.sortedPriorities() {
		s.mu.Lock()
		group := append([]*Queue(nil), s.byPriority[p]...)
		cursor := s.cursor[p]
		s.mu.Unlock()

		n := len(group)
		for i := 0; i < n; i++ {
			idx := (cursor + i) % n
			if t, ok := group[idx].popDue(now); ok {
				s.mu.Lock()
				s.cursor[p] = (idx + 1) % n
				s.mu.Unlock()
				return t, true
			}
		}
	}
	return Task{}, false
}

func (s *priorityScheduler) nextDeadline(now time.Time) (time.Time, bool) {
	s.mu.Lock()
	var all []*Queue
	for _, group := range s.byPriority {
		all = append(all, group...)
	}
	s.mu.Unlock()
	return earliestDeadline(all, now)
}

func (s *priorityScheduler) drainAll() []Task {
	s.mu.Lock()
	var queues []*Queue
	for _, group := range s.byPriority {
		queues = append(queues, group...)
	}
	s.mu.Unlock()
	var all []Task
	for _, q := range queues {
		all = append(all, q.drainAll()...)
	}
	return all
}

func earliestDeadline(queues []*Queue, now time.Time) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, q := range queues {
		if at, ok := q.nextDeadline(now); ok {
			if !found || at.Before(earliest) {
				earliest = at
				found = true
			}
		}
	}
	return earliest, found
}
