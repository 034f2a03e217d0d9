package broadcast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/collabkit/collab/internal/broadcast"
)

func TestHubFanOut(t *testing.T) {
	h := broadcast.New[int](4)
	ch1, cancel1 := h.Subscribe()
	ch2, cancel2 := h.Subscribe()
	defer cancel1()
	defer cancel2()

	h.Publish(1)
	h.Publish(2)

	require.Equal(t, 1, <-ch1)
	require.Equal(t, 2, <-ch1)
	require.Equal(t, 1, <-ch2)
	require.Equal(t, 2, <-ch2)
}

func TestHubDropsOldestWhenFull(t *testing.T) {
	h := broadcast.New[int](1)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(1)
	h.Publish(2) // buffer holds 1 slot: 1 dropped in favor of 2

	select {
	case v := <-ch:
		require.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("expected a buffered event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := broadcast.New[int](1)
	ch, cancel := h.Subscribe()
	cancel()
	require.Equal(t, 0, h.Len())

	_, ok := <-ch
	require.False(t, ok)
}
