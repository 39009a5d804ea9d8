// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func assertEmpty(t *testing.T, ch <-chan string) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %q", msg)
	default:
	}
}

func TestHub_SubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()

	id1, ch1 := hub.Subscribe(1)
	id2, _ := hub.Subscribe(1)
	_, _ = hub.Subscribe(2)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 3, hub.ClientCount())
	assert.Equal(t, 2, hub.UserCount())

	hub.Unsubscribe(id1)
	assert.Equal(t, 2, hub.ClientCount())

	_, open := <-ch1
	assert.False(t, open, "channel is closed on unsubscribe")

	hub.Unsubscribe(id1)
	hub.Unsubscribe("unknown")
	assert.Equal(t, 2, hub.ClientCount())
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	id, ch1 := hub.Subscribe(1)
	_, ch2 := hub.Subscribe(2)

	hub.Close()

	assert.Zero(t, hub.ClientCount())
	_, open := <-ch1
	assert.False(t, open)
	_, open = <-ch2
	assert.False(t, open)

	// A stream closed by the hub may still unsubscribe itself.
	hub.Unsubscribe(id)

	_, ch3 := hub.Subscribe(3)
	hub.Broadcast("after")
	assert.Equal(t, "after", receive(t, ch3))
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	_, ch1 := hub.Subscribe(1)
	_, ch2 := hub.Subscribe(2)

	hub.Broadcast("hello")

	assert.Equal(t, "hello", receive(t, ch1))
	assert.Equal(t, "hello", receive(t, ch2))
}

func TestHub_SendToUser(t *testing.T) {
	hub := NewHub()
	_, tab1 := hub.Subscribe(1)
	_, tab2 := hub.Subscribe(1)
	_, other := hub.Subscribe(2)

	hub.SendToUser(1, "only you")

	assert.Equal(t, "only you", receive(t, tab1))
	assert.Equal(t, "only you", receive(t, tab2))
	assertEmpty(t, other)
}

func TestHub_FullChannelDropsMessages(t *testing.T) {
	hub := NewHub()
	_, ch := hub.Subscribe(1)

	for range bufferSize + 5 {
		hub.Broadcast("spam")
	}

	assert.Len(t, ch, bufferSize)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			id, _ := hub.Subscribe(userID)
			hub.Broadcast("tick")
			hub.SendToUser(userID, "tock")
			hub.Unsubscribe(id)
		}(int64(i % 4))
	}
	wg.Wait()

	require.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.UserCount())
}
