package engine

import (
	"sync"
	"sync/atomic"

	"tuissh/internal/frame"
)

// Context is the Engine Context of spec.md §4.4: the per-session object
// passed to every handler callback. It deliberately exposes no rendering,
// sink, or teardown method — shutdown is expressed only through a
// Terminate Result.
type Context[M any] struct {
	size atomic.Pointer[frame.Rect]
	q    *queue[M]

	mu     sync.RWMutex
	ticks  uint8
	hasTPS bool
}

func newContext[M any](area frame.Rect, q *queue[M], ticks uint8, hasTPS bool) *Context[M] {
	c := &Context[M]{q: q, ticks: ticks, hasTPS: hasTPS}
	c.setSize(area)
	return c
}

func (c *Context[M]) setSize(area frame.Rect) {
	r := area
	c.size.Store(&r)
}

// CurrentSize returns the most recently processed viewport rectangle.
func (c *Context[M]) CurrentSize() frame.Rect {
	return *c.size.Load()
}

// TerminalChannel returns a cloneable producer handle to this session's
// async-message queue. The handler may share it with a background
// goroutine to wake itself later via OnMessage.
func (c *Context[M]) TerminalChannel() Sender[M] {
	return Sender[M]{q: c.q}
}

// TicksPerSecond reports the handler's declared animation rate, as
// captured at engine construction time.
func (c *Context[M]) TicksPerSecond() (uint8, bool) {
	return c.ticks, c.hasTPS
}

// Sender is a cloneable, send-only handle onto a session's async-message
// queue, safe to share across goroutines (see spec.md §4.4).
type Sender[M any] struct {
	q *queue[M]
}

// Send posts msg to the owning session's engine. It reports false if the
// session has already torn down its queue.
func (s Sender[M]) Send(msg M) bool {
	return s.q.push(msg)
}
