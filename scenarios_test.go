package substrate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenario_S1_SerialChainWithValueTransformation matches spec.md's S1:
// with(Q, 5).then(x -> x+1).then(x -> x*2).then(x -> x) observes 12.
func TestScenario_S1_SerialChainWithValueTransformation(t *testing.T) {
	ec := NewExecutionContext()
	go func() { _ = ec.Start() }()
	defer func() { _ = ec.Shutdown(Annihilate) }()

	p := With(ec, 5)
	p = Then(p, ec.Queue, func(x int) int { return x + 1 })
	p = Then(p, ec.Queue, func(x int) int { return x * 2 })
	p = Then(p, ec.Queue, func(x int) int { return x })

	got := awaitPromise(t, p)
	require.Equal(t, 12, got.Get())
}

// TestScenario_S2_ErrorRecovery matches spec.md's S2: a chain that throws
// then recovers via fail, observing "recovered".
func TestScenario_S2_ErrorRecovery(t *testing.T) {
	ec := NewExecutionContext()
	go func() { _ = ec.Start() }()
	defer func() { _ = ec.Shutdown(Annihilate) }()

	p := With(ec, Void)
	thrown := ThenPromise(p, ec.Queue, func(unit) Promise[string] {
		return Rejected[string](errors.New("boom"))
	})
	recovered := Fail(thrown, ec.Queue, func(error) string { return "recovered" })
	final := Then(recovered, ec.Queue, func(s string) string { return s })

	got := awaitPromise(t, final)
	require.Equal(t, "recovered", got.Get())
}

// TestScenario_S3_Adoption matches spec.md's S3: a then callback that
// itself returns a promise (ThenPromise) flattens rather than nesting.
func TestScenario_S3_Adoption(t *testing.T) {
	ec := NewExecutionContext()
	go func() { _ = ec.Start() }()
	defer func() { _ = ec.Shutdown(Annihilate) }()

	p := With(ec, 1)
	adopted := ThenPromise(p, ec.Queue, func(x int) Promise[int] {
		return MakePromiseWithResolvers(func(resolve func(int), _ func(error)) {
			ec.Queue.Push(NewTask(func() { resolve(x + 10) }))
		})
	})
	final := Then(adopted, ec.Queue, func(x int) int { return x })

	got := awaitPromise(t, final)
	require.Equal(t, 11, got.Get())
}

// TestScenario_S6_AllMixedOutcomes matches spec.md's S6: the vector form
// of All rejects with a CombinedFailureError whose slots mirror each
// input's own outcome, in order.
func TestScenario_S6_AllMixedOutcomes(t *testing.T) {
	errP2 := errors.New("p2 failed")
	out := All([]Promise[int]{Resolved(3), Rejected[int](errP2), Resolved(5)})

	got := awaitPromise(t, out)
	require.True(t, got.HasException())

	var combined *CombinedFailureError[int]
	require.ErrorAs(t, got.Exception(), &combined)
	require.Len(t, combined.Outcomes, 3)
	require.False(t, combined.Outcomes[0].HasException())
	require.Equal(t, 3, combined.Outcomes[0].Get())
	require.True(t, combined.Outcomes[1].HasException())
	require.ErrorIs(t, combined.Outcomes[1].Exception(), errP2)
	require.False(t, combined.Outcomes[2].HasException())
	require.Equal(t, 5, combined.Outcomes[2].Get())
}

// TestScenario_RoundTripShare_Fulfilled and
// TestScenario_RoundTripShare_Rejected match the "Round-trip" testable property:
// Share then observe via two subscribers yields two calls each seeing
// equal values, and a rejected shared promise yields two rejections with
// equal errors.
func TestScenario_RoundTripShare_Fulfilled(t *testing.T) {
	d := NewDefer[int]()
	shared := d.Promise().Share()

	var v1, v2 int
	done1, done2 := make(chan struct{}), make(chan struct{})
	_ = shared.registerContinuation(func(e Expect[int]) { v1 = e.Consume(); close(done1) })
	_ = shared.registerContinuation(func(e Expect[int]) { v2 = e.Consume(); close(done2) })

	_ = d.SetValue(7)
	<-done1
	<-done2
	require.Equal(t, 7, v1)
	require.Equal(t, v2, v1)
}

func TestScenario_RoundTripShare_Rejected(t *testing.T) {
	d := NewDefer[int]()
	shared := d.Promise().Share()
	boom := errors.New("boom")

	var e1, e2 error
	done1, done2 := make(chan struct{}), make(chan struct{})
	_ = shared.registerContinuation(func(e Expect[int]) { e1 = e.Exception(); close(done1) })
	_ = shared.registerContinuation(func(e Expect[int]) { e2 = e.Exception(); close(done2) })

	_ = d.SetException(boom)
	<-done1
	<-done2
	require.ErrorIs(t, e1, boom)
	require.ErrorIs(t, e2, boom)
}
