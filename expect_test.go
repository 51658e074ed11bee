package substrate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpect_Fulfill(t *testing.T) {
	e := Fulfill(42)
	require.False(t, e.HasException())
	require.Equal(t, 42, e.Get())
	require.Equal(t, 42, e.Consume())
	require.Nil(t, e.Exception())
}

func TestExpect_Refuse(t *testing.T) {
	errBoom := errors.New("boom")
	e := Refuse[int](errBoom)
	require.True(t, e.HasException())
	require.Equal(t, errBoom, e.Exception())
	require.NotEmpty(t, e.Origin())
}

func TestExpect_RefuseNilSubstitutesInvalidException(t *testing.T) {
	e := Refuse[string](nil)
	require.True(t, e.HasException())
	require.ErrorIs(t, e.Exception(), ErrInvalidException)
}

func TestExpect_FulfillVoid(t *testing.T) {
	e := FulfillVoid()
	require.False(t, e.HasException())
	require.Equal(t, Void, e.Get())
}
