package substrate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBlockingDispatcher_RunsPushedTasks(t *testing.T) {
	sched := NewDirectScheduler()
	q := NewQueue()
	require.NoError(t, sched.AddQueue(q))

	disp := NewBlockingDispatcher()
	Attach(sched, disp)

	var ran sync.WaitGroup
	ran.Add(1)
	q.Push(NewTask(func() { ran.Done() }))

	go func() { _ = disp.Start() }()

	waitOrFail(t, &ran, "blocking dispatcher never ran the task")

	require.NoError(t, disp.Terminate(Annihilate))
	awaitTerminated(t, disp)
}

func TestThreadPoolDispatcher_RunsTasksAcrossWorkers(t *testing.T) {
	sched := NewDirectScheduler()
	q := NewQueue()
	require.NoError(t, sched.AddQueue(q))

	disp := NewThreadPoolDispatcher(WithThreadPoolWorkers(4))
	Attach(sched, disp)
	require.NoError(t, disp.Start())

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		q.Push(NewTask(func() { wg.Done() }))
	}

	waitOrFail(t, &wg, "thread pool dispatcher did not run all tasks")

	require.NoError(t, disp.Terminate(Annihilate))
	awaitTerminated(t, disp)
}

func TestDispatcher_LingerDrainsBacklogBeforeStopping(t *testing.T) {
	sched := NewDirectScheduler()
	q := NewQueue()
	require.NoError(t, sched.AddQueue(q))

	disp := NewThreadPoolDispatcher(WithThreadPoolWorkers(1))
	Attach(sched, disp)

	var ran int32
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		q.Push(NewTask(func() { mu.Lock(); ran++; mu.Unlock() }))
	}

	require.NoError(t, disp.Start())
	require.NoError(t, disp.Terminate(Linger))
	awaitTerminated(t, disp)

	mu.Lock()
	defer mu.Unlock()
	require.EqualValues(t, 10, ran)
}

func TestDispatcher_DoubleStartFails(t *testing.T) {
	disp := NewBlockingDispatcher()
	sched := NewDirectScheduler()
	Attach(sched, disp)
	go func() { _ = disp.Start() }()
	time.Sleep(10 * time.Millisecond)
	require.ErrorIs(t, disp.Start(), ErrDispatcherStarted)
	_ = disp.Terminate(Annihilate)
	awaitTerminated(t, disp)
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup, msg string) {
	t.Helper()
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal(msg)
	}
}

func awaitTerminated(t *testing.T, disp Dispatcher) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		_ = disp.AwaitTermination()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher never terminated")
	}
}
