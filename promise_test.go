package substrate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefer_SetValueSettlesPromise(t *testing.T) {
	d := NewDefer[int]()
	p := d.Promise()

	var got int
	done := make(chan struct{})
	_ = p.registerContinuation(func(e Expect[int]) {
		got = e.Consume()
		close(done)
	})

	require.NoError(t, d.SetValue(7))
	<-done
	require.Equal(t, 7, got)
}

func TestDefer_DoubleSettleFails(t *testing.T) {
	d := NewDefer[int]()
	require.NoError(t, d.SetValue(1))
	require.ErrorIs(t, d.SetValue(2), ErrDeferAlreadySettled)
}

func TestPromise_UniqueRejectsSecondContinuation(t *testing.T) {
	d := NewDefer[int]()
	p := d.Promise()
	require.NoError(t, p.registerContinuation(func(Expect[int]) {}))
	require.ErrorIs(t, p.registerContinuation(func(Expect[int]) {}), ErrPromiseAlreadyConsumed)
}

func TestPromise_SharedAllowsManyContinuations(t *testing.T) {
	d := NewDefer[int]()
	p := d.Promise().Share()
	require.NoError(t, p.registerContinuation(func(Expect[int]) {}))
	require.NoError(t, p.registerContinuation(func(Expect[int]) {}))
}

func TestDefer_AbandonSettlesWithErrAbandoned(t *testing.T) {
	d := NewDefer[int]()
	p := d.Promise()
	done := make(chan error, 1)
	_ = p.registerContinuation(func(e Expect[int]) { done <- e.Exception() })
	d.Abandon()
	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrAbandoned)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for abandonment")
	}
}

func TestThen_ChainsOnSuccess(t *testing.T) {
	p := Resolved(2)
	out := Then(p, nil, func(v int) int { return v * 10 })
	got := awaitPromise(t, out)
	require.Equal(t, 20, got.Get())
}

func TestThen_PropagatesRefusalWithoutCallingFn(t *testing.T) {
	errBoom := errors.New("boom")
	p := Rejected[int](errBoom)
	called := false
	out := Then(p, nil, func(v int) int { called = true; return v })
	got := awaitPromise(t, out)
	require.False(t, called)
	require.ErrorIs(t, got.Exception(), errBoom)
}

func TestFail_RecoversRefusal(t *testing.T) {
	p := Rejected[int](errors.New("boom"))
	out := Fail(p, nil, func(error) int { return 99 })
	got := awaitPromise(t, out)
	require.False(t, got.HasException())
	require.Equal(t, 99, got.Get())
}

func TestThenPromise_Flattens(t *testing.T) {
	p := Resolved(3)
	out := ThenPromise(p, nil, func(v int) Promise[int] { return Resolved(v + 1) })
	got := awaitPromise(t, out)
	require.Equal(t, 4, got.Get())
}

func TestFinally_RunsRegardlessOfOutcome(t *testing.T) {
	ran := false
	p := Rejected[int](errors.New("boom"))
	out := Finally(p, nil, func() { ran = true })
	got := awaitPromise(t, out)
	require.True(t, ran)
	require.True(t, got.HasException())
}

func TestAll2_CombinesBothSuccesses(t *testing.T) {
	out := All2(Resolved(1), Resolved("a"))
	got := awaitPromise(t, out)
	require.Equal(t, 1, got.Get().A)
	require.Equal(t, "a", got.Get().B)
}

func TestAll2_FailsIfEitherFails(t *testing.T) {
	boom := errors.New("boom")
	out := All2(Resolved(1), Rejected[string](boom))
	got := awaitPromise(t, out)
	require.True(t, got.HasException())
	require.ErrorIs(t, got.Exception(), boom)
}

func TestAll_VectorForm(t *testing.T) {
	out := All([]Promise[int]{Resolved(1), Resolved(2), Resolved(3)})
	got := awaitPromise(t, out)
	require.Equal(t, []int{1, 2, 3}, got.Get())
}

func TestAll_VectorFormEmpty(t *testing.T) {
	out := All[int](nil)
	got := awaitPromise(t, out)
	require.Nil(t, got.Get())
}

func TestTry_RecoversPanic(t *testing.T) {
	p := Try(func() (int, error) {
		panic(errors.New("kaboom"))
	})
	got := awaitPromise(t, p)
	require.True(t, got.HasException())
}

// awaitPromise blocks the test goroutine until p settles, using a
// synchronous (nil-queue) continuation, and returns the outcome.
func awaitPromise[T any](t *testing.T, p Promise[T]) Expect[T] {
	t.Helper()
	done := make(chan Expect[T], 1)
	err := p.registerContinuation(func(e Expect[T]) { done <- e })
	require.NoError(t, err)
	select {
	case e := <-done:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("promise did not settle in time")
		panic("unreachable")
	}
}
