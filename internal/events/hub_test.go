package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lalith-99/nextup/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestHub_DeliversOnlyToSameShop(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	a, cancelA, err := hub.Subscribe(ctx, "shop-a")
	require.NoError(t, err)
	defer cancelA()
	b, cancelB, err := hub.Subscribe(ctx, "shop-b")
	require.NoError(t, err)
	defer cancelB()

	ev := Event{Type: BookingCreated, ShopID: "shop-a", Booking: models.Booking{ID: "bk_1", ShopID: "shop-a"}}
	require.NoError(t, hub.Publish(ctx, ev))

	got := recv(t, a)
	assert.Equal(t, "bk_1", got.Booking.ID)

	select {
	case ev := <-b:
		t.Fatalf("shop-b received shop-a event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_CancelClosesChannel(t *testing.T) {
	hub := NewHub()

	ch, cancel, err := hub.Subscribe(context.Background(), "shop-a")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers("shop-a"))

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers("shop-a"))

	// Publishing after everyone left is fine.
	require.NoError(t, hub.Publish(context.Background(), Event{ShopID: "shop-a"}))
}

func TestHub_ContextCancelUnsubscribes(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch, _, err := hub.Subscribe(ctx, "shop-a")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancel")
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, cancel, err := hub.Subscribe(context.Background(), "shop-a")
	require.NoError(t, err)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			_ = hub.Publish(context.Background(), Event{ShopID: "shop-a"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, Event) error { return f.err }

func TestFanout_PublishesToAllAndJoinsErrors(t *testing.T) {
	hub := NewHub()
	ch, cancel, err := hub.Subscribe(context.Background(), "shop-a")
	require.NoError(t, err)
	defer cancel()

	boom := errors.New("broker down")
	f := Fanout{failingPublisher{err: boom}, nil, hub}

	err = f.Publish(context.Background(), Event{Type: BookingStatusChanged, ShopID: "shop-a"})
	require.ErrorIs(t, err, boom)

	got := recv(t, ch)
	assert.Equal(t, BookingStatusChanged, got.Type)
}
