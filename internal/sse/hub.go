// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package sse fans server-sent events out to connected browsers.
package sse

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// bufferSize is how many events a slow client may lag behind before
// events are dropped for it.
const bufferSize = 16

type client struct {
	ch     chan string
	userID int64
}

// Hub tracks open event streams. A user may hold several streams (tabs,
// browsers); each one has its own id.
type Hub struct {
	clients map[string]client
	mu      sync.RWMutex
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]client)}
}

// Subscribe opens a stream for userID and returns its id and channel.
func (h *Hub) Subscribe(userID int64) (string, <-chan string) {
	id := uuid.NewString()
	ch := make(chan string, bufferSize)

	h.mu.Lock()
	h.clients[id] = client{ch: ch, userID: userID}
	h.mu.Unlock()

	return id, ch
}

// Unsubscribe closes the stream with the given id. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.ch)
	}
}

// Close ends every open stream. Streams subscribed afterwards work as usual.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.ch)
	}
}

// Broadcast sends a message to every stream.
func (h *Hub) Broadcast(message string) {
	h.send(message, func(client) bool { return true })
}

// SendToUser sends a message to all streams of one user.
func (h *Hub) SendToUser(userID int64, message string) {
	h.send(message, func(c client) bool { return c.userID == userID })
}

// send holds the read lock while writing so Unsubscribe cannot close a
// channel mid-send. Full channels are skipped.
func (h *Hub) send(message string, match func(client) bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.ch <- message:
		default:
		}
	}
}

// ClientCount returns the number of open streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// UserCount returns the number of distinct users with open streams.
func (h *Hub) UserCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(lo.Uniq(lo.MapToSlice(h.clients, func(_ string, c client) int64 {
		return c.userID
	})))
}
