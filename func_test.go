package substrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUniqueFunc_InvokesOnce(t *testing.T) {
	calls := 0
	u := NewUniqueFunc(func() { calls++ })
	require.NoError(t, u.Invoke())
	require.ErrorIs(t, u.Invoke(), ErrBadFunctionCall)
	require.Equal(t, 1, calls)
}

func TestUniqueFunc_ZeroValueFails(t *testing.T) {
	var u UniqueFunc
	require.ErrorIs(t, u.Invoke(), ErrBadFunctionCall)
}

func TestUniqueFunc_ShareAllowsRepeatedInvocation(t *testing.T) {
	calls := 0
	u := NewUniqueFunc(func() { calls++ })
	shared := u.Share()
	require.NoError(t, shared.Invoke())
	require.NoError(t, shared.Invoke())
	require.Equal(t, 2, calls)
}

func TestTask_ImmediateAndRun(t *testing.T) {
	ran := false
	task := NewTask(func() { ran = true })
	require.False(t, task.IsTimed())
	task.Run()
	require.True(t, ran)
}
