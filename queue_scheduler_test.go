package substrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := NewQueue()
	var order []int
	q.Push(NewTask(func() { order = append(order, 1) }))
	q.Push(NewTask(func() { order = append(order, 2) }))
	q.Push(NewTask(func() { order = append(order, 3) }))

	for i := 0; i < 3; i++ {
		task, ok := q.popDue(time.Now())
		require.True(t, ok)
		task.Run()
	}
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestQueue_DueTimedTaskOutranksImmediate(t *testing.T) {
	q := NewQueue()
	past := time.Now().Add(-time.Second)

	var order []string
	q.Push(NewTask(func() { order = append(order, "immediate") }))
	q.Push(NewTimedTask(func() { order = append(order, "timed") }, past))

	task, ok := q.popDue(time.Now())
	require.True(t, ok)
	task.Run()
	require.Equal(t, []string{"timed"}, order)
}

func TestQueue_FutureTimedTaskDoesNotStarveImmediate(t *testing.T) {
	q := NewQueue()
	future := time.Now().Add(time.Hour)

	q.Push(NewTimedTask(func() {}, future))
	q.Push(NewTask(func() {}))

	_, ok := q.popDue(time.Now())
	require.True(t, ok, "the immediate task behind a not-yet-due timed head must still be picked")
}

func TestQueue_EmptyPopReportsNotDue(t *testing.T) {
	q := NewQueue()
	_, ok := q.popDue(time.Now())
	require.False(t, ok)
}

func TestDirectScheduler_RoundRobinAcrossQueues(t *testing.T) {
	sched := NewDirectScheduler()
	q1 := NewQueue()
	q2 := NewQueue()
	require.NoError(t, sched.AddQueue(q1))
	require.NoError(t, sched.AddQueue(q2))

	var order []string
	q1.Push(NewTask(func() { order = append(order, "q1") }))
	q2.Push(NewTask(func() { order = append(order, "q2") }))

	for i := 0; i < 2; i++ {
		nextTask(t, sched).Run()
	}
	require.ElementsMatch(t, []string{"q1", "q2"}, order)
}

func TestPriorityScheduler_HigherPriorityDrainsFirst(t *testing.T) {
	sched := NewPriorityScheduler()
	low := NewQueue(WithQueuePriority(0))
	high := NewQueue(WithQueuePriority(10))
	require.NoError(t, sched.AddQueue(low))
	require.NoError(t, sched.AddQueue(high))

	low.Push(NewTask(func() {}))
	low.Push(NewTask(func() {}))
	high.Push(NewTask(func() {}))

	_, ok := sched.next(time.Now())
	require.True(t, ok)
	require.Equal(t, 0, high.Len())
	require.Equal(t, 2, low.Len())
}

func TestScheduler_AddQueueRejectsDoubleOwnership(t *testing.T) {
	s1 := NewDirectScheduler()
	s2 := NewDirectScheduler()
	q := NewQueue()
	require.NoError(t, s1.AddQueue(q))
	require.ErrorIs(t, s2.AddQueue(q), ErrQueueOwned)
}

func nextTask(t *testing.T, sched Scheduler) Task {
	t.Helper()
	task, ok := sched.next(time.Now())
	require.True(t, ok)
	return task
}
