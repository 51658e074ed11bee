package substrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChannel_FIFOAndClose(t *testing.T) {
	r, w := NewChannelPair[int](WithChannelCapacity[int](5))

	require.True(t, w.Write(17))
	require.True(t, w.Write(4711))
	w.Close()

	first := awaitPromise(t, r.Read())
	require.Equal(t, 17, first.Get())

	second := awaitPromise(t, r.Read())
	require.Equal(t, 4711, second.Get())

	third := awaitPromise(t, r.Read())
	require.True(t, third.HasException())
	require.ErrorIs(t, third.Exception(), ErrChannelClosed)
}

func TestChannel_Backpressure(t *testing.T) {
	r, w := NewChannelPair[int](WithChannelCapacity[int](2), WithChannelResumeThreshold[int](1))

	require.True(t, w.Write(1))
	require.True(t, w.ShouldWrite())
	require.True(t, w.Write(2))
	require.False(t, w.ShouldWrite())
	require.True(t, w.Write(3))
	require.False(t, w.ShouldWrite())

	notified := make(chan struct{}, 1)
	w.SetResumeNotification(func() { notified <- struct{}{} })

	_ = awaitPromise(t, r.Read())

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("resume notification never fired")
	}
	require.True(t, w.ShouldWrite())
}

func TestChannel_ReaderWaitListServesLongestWaitingFirst(t *testing.T) {
	r, w := NewChannelPair[int](WithChannelCapacity[int](1))

	p1 := r.Read()
	p2 := r.Read()

	require.True(t, w.Write(100))
	require.True(t, w.Write(200))

	got1 := awaitPromise(t, p1)
	got2 := awaitPromise(t, p2)
	require.Equal(t, 100, got1.Get())
	require.Equal(t, 200, got2.Get())
}

func TestChannel_WriteHandsOffDirectlyToWaitingReader(t *testing.T) {
	r, w := NewChannelPair[int](WithChannelCapacity[int](1))

	p := r.Read()
	require.True(t, w.Write(5))
	require.Equal(t, 0, r.ch.Len())

	got := awaitPromise(t, p)
	require.Equal(t, 5, got.Get())
}

func TestChannel_LastWritableHandleDropClosesChannel(t *testing.T) {
	r, w := NewChannelPair[int](WithChannelCapacity[int](1))
	w2 := w.Dup()

	w.Close()
	require.False(t, r.ch.IsClosed())
	w2.Close()
	require.True(t, r.ch.IsClosed())
}

func TestChannel_LastReadableHandleDropClosesChannel(t *testing.T) {
	r, w := NewChannelPair[int](WithChannelCapacity[int](1))
	r2 := r.Dup()

	r.Close()
	require.False(t, w.ch.IsClosed())
	r2.Close()
	require.True(t, w.ch.IsClosed())
}

func TestChannel_ReadAllCollectsUntilCleanClose(t *testing.T) {
	r, w := NewChannelPair[int](WithChannelCapacity[int](4))
	w.Write(1)
	w.Write(2)
	w.Write(3)
	w.Close()

	got := awaitPromise(t, r.ReadAll())
	require.Equal(t, []int{1, 2, 3}, got.Get())
}

func TestConsumeChannel_ProcessesEveryValue(t *testing.T) {
	r, w := NewChannelPair[int](WithChannelCapacity[int](8))
	for i := 0; i < 5; i++ {
		w.Write(i)
	}
	w.Close()

	var sum int
	p := ConsumeChannel(r, 2, func(v int) error {
		sum += v
		return nil
	})
	got := awaitPromise(t, p)
	require.False(t, got.HasException())
	require.Equal(t, 10, sum)
}
