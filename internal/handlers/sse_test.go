// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/stemmww/recipeshare/internal/sse"
	"codeberg.org/stemmww/recipeshare/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamRecorder is a ResponseWriter that is safe to read while the
// handler is still writing.
type streamRecorder struct {
	header http.Header
	buf    bytes.Buffer
	mu     sync.Mutex
	code   int
}

func (r *streamRecorder) Header() http.Header { return r.header }

func (r *streamRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func TestEvents(t *testing.T) {
	app := newTestApp(t)
	user := testutil.NewTestUser(t, app.repo, "ada@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := &streamRecorder{header: http.Header{}}
	c := app.e.NewContext(req, w)
	cc := app.signIn(t, c, user, false)

	done := make(chan error, 1)
	go func() { done <- app.h.Events(cc) }()

	require.Eventually(t, func() bool { return app.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	app.hub.Broadcast(sse.FormatEvent(sse.EventRecipe, `{"action":"created"}`))

	require.Eventually(t, func() bool {
		return strings.Contains(w.String(), "event: recipe")
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.String(), "event: connected\ndata: ok\n\n")
	assert.Zero(t, app.hub.ClientCount())
}
