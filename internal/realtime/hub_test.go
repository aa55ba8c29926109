package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	trackedNumber = "ORD-20250101120000-0000000ABCDE"
	otherNumber   = "ORD-20250101120001-0000000FFFFF"
)

func recv(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		require.True(t, ok, "client queue closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	return Event{}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case ev := <-c.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestHub_DeliversOnlyToChannelSubscribers(t *testing.T) {
	hub := NewHub(nil, 8)
	r1 := hub.Register()
	r2 := hub.Register()
	tracker := hub.Register()

	require.NoError(t, hub.Join(r1, RestaurantChannel(1)))
	require.NoError(t, hub.Join(r2, RestaurantChannel(2)))
	require.NoError(t, hub.Join(tracker, OrderChannel(trackedNumber)))

	require.NoError(t, hub.Publish(context.Background(), RestaurantChannel(1), EventNewOrder, map[string]int{"order_id": 55}))
	ev := recv(t, r1)
	assert.Equal(t, EventNewOrder, ev.Type)
	assert.Equal(t, "restaurant:1", ev.Channel)
	assertNoEvent(t, r2)
	assertNoEvent(t, tracker)

	require.NoError(t, hub.Publish(context.Background(), OrderChannel(trackedNumber), EventOrderStatusUpdated, nil))
	assert.Equal(t, EventOrderStatusUpdated, recv(t, tracker).Type)
	assertNoEvent(t, r1)
}

func TestHub_LeaveAndUnregister(t *testing.T) {
	hub := NewHub(nil, 8)
	c := hub.Register()
	require.NoError(t, hub.Join(c, RestaurantChannel(1)))
	require.NoError(t, hub.Join(c, SuperadminChannel()))
	assert.Equal(t, 1, hub.Subscribers(RestaurantChannel(1)))

	hub.Leave(c, RestaurantChannel(1))
	assert.Zero(t, hub.Subscribers(RestaurantChannel(1)))
	require.NoError(t, hub.Publish(context.Background(), RestaurantChannel(1), EventNewOrder, nil))
	assertNoEvent(t, c)

	hub.Unregister(c)
	assert.Zero(t, hub.Subscribers(SuperadminChannel()))
	_, open := <-c.Events()
	assert.False(t, open, "queue must be closed on unregister")

	// subscriptions are not remembered across reconnects
	assert.True(t, errors.Is(hub.Join(c, RestaurantChannel(1)), ErrClientGone))
	hub.Unregister(c)
}

func TestHub_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(nil, 2)
	slow := hub.Register()
	fast := hub.Register()
	require.NoError(t, hub.Join(slow, RestaurantChannel(1)))
	require.NoError(t, hub.Join(fast, RestaurantChannel(1)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			_ = hub.Publish(context.Background(), RestaurantChannel(1), EventNewOrder, i)
			<-fast.Events()
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.EqualValues(t, 3, hub.Dropped())
	assert.Len(t, slow.Events(), 2)
}

func TestHub_RejectsUnknownChannel(t *testing.T) {
	hub := NewHub(nil, 1)
	c := hub.Register()
	assert.ErrorIs(t, hub.Join(c, "kitchen:1"), ErrUnknownChannel)
	assert.ErrorIs(t, hub.Join(c, "restaurant:abc"), ErrUnknownChannel)
	assert.ErrorIs(t, hub.Join(c, "restaurant:0"), ErrUnknownChannel)
}

type recordingBus struct {
	channels []string
	err      error
}

func (b *recordingBus) Publish(_ context.Context, channel, _ string, _ any) error {
	b.channels = append(b.channels, channel)
	return b.err
}

func TestMultiBus(t *testing.T) {
	ok := &recordingBus{}
	failing := &recordingBus{err: errors.New("broker down")}
	bus := MultiBus{ok, nil, failing}

	err := bus.Publish(context.Background(), OrderChannel(otherNumber), EventOrderStatusUpdated, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, []string{"order:" + otherNumber}, ok.channels, "a failing bus must not stop the others")
	assert.Equal(t, []string{"order:" + otherNumber}, failing.channels)

	assert.NoError(t, Nop{}.Publish(context.Background(), "x", "y", nil))
}

func TestValidChannel(t *testing.T) {
	for _, name := range []string{"restaurant:7", "admin:3", "superadmin", "order:" + trackedNumber} {
		assert.True(t, ValidChannel(name), name)
	}
	for _, name := range []string{
		"order:42", "order:ORD-1", "restaurant:0", "restaurant:" + trackedNumber, "kitchen:1", "restaurant",
	} {
		assert.False(t, ValidChannel(name), name)
	}
}
