package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(Event{Kind: EventNotification, UserID: 1, Level: NotifyWarning, Message: "sắp vượt ngân sách"})

	select {
	case ev := <-ch:
		assert.Equal(t, EventNotification, ev.Kind)
		assert.Equal(t, uint(1), ev.UserID)
		assert.Equal(t, "sắp vượt ngân sách", ev.Message)
		assert.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("không nhận được sự kiện")
	}
}

func TestBusIsolatesUsers(t *testing.T) {
	bus := NewBus()

	ch1, cancel1 := bus.Subscribe(1)
	defer cancel1()
	ch2, cancel2 := bus.Subscribe(2)
	defer cancel2()

	bus.Publish(Event{Kind: EventTransactionsChanged, UserID: 2})

	select {
	case ev := <-ch2:
		assert.Equal(t, uint(2), ev.UserID)
	case <-time.After(time.Second):
		t.Fatal("subscriber của user 2 không nhận được sự kiện")
	}

	// user 1 không được nhận sự kiện của user 2
	select {
	case ev := <-ch1:
		t.Fatalf("user 1 nhận nhầm sự kiện: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(1)
	cancel()

	_, ok := <-ch
	assert.False(t, ok, "kênh phải được đóng sau khi hủy đăng ký")

	// phát sau khi hủy không được panic
	require.NotPanics(t, func() {
		bus.Publish(Event{Kind: EventNotification, UserID: 1})
	})
}

func TestBusPublishNonBlocking(t *testing.T) {
	bus := NewBus()

	_, cancel := bus.Subscribe(1)
	defer cancel()

	// không ai đọc kênh: phát quá sức chứa buffer vẫn không được chặn
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Kind: EventNotification, UserID: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish bị chặn khi subscriber không đọc")
	}
}
