// Package sink implements the Sink Handle: a write-only byte buffer over one
// SSH channel, flushed asynchronously through a dedicated forwarder
// goroutine that exclusively owns the channel's write side.
package sink

import (
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrBrokenPipe is returned by Write/Flush once the forwarder goroutine has
// exited (the sink was closed or aborted). A failed channel write does not
// stop the forwarder: it is logged and forwarding continues.
var ErrBrokenPipe = errors.New("tuissh: sink: broken pipe")

type writeMsg struct{ data []byte }
type closeMsg struct{}

// Handle buffers writes from a blocking drawing path and ships them to an
// SSH channel through a forwarder goroutine, the Go-native shape of
// original_source/src/internal/sync_sink.rs's SinkTerminalHandle.
type Handle struct {
	log *logrus.Entry

	mu  sync.Mutex
	buf []byte

	msgs   chan any
	done   chan struct{}
	closed sync.Once
	broken atomicBool
}

// New starts the forwarder goroutine over ch and returns the Handle that
// feeds it.
func New(ch io.WriteCloser, log *logrus.Entry) *Handle {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	h := &Handle{
		log:  log,
		msgs: make(chan any, 64),
		done: make(chan struct{}),
	}
	go h.forward(ch)
	return h
}

func (h *Handle) forward(ch io.WriteCloser) {
	defer close(h.done)
	for m := range h.msgs {
		switch msg := m.(type) {
		case writeMsg:
			if len(msg.data) == 0 {
				continue
			}
			if _, err := ch.Write(msg.data); err != nil {
				h.log.WithError(err).Warn("error writing to channel")
			}
		case closeMsg:
			if err := ch.Close(); err != nil {
				h.log.WithError(err).Warn("error closing channel")
			}
			h.broken.set()
			return
		}
	}
}

// Write appends p to the internal buffer. It never performs I/O and never
// blocks; it only fails once the forwarder has exited.
func (h *Handle) Write(p []byte) (int, error) {
	if h.broken.get() {
		return 0, ErrBrokenPipe
	}
	h.mu.Lock()
	h.buf = append(h.buf, p...)
	h.mu.Unlock()
	return len(p), nil
}

// Flush atomically swaps the internal buffer for an empty one and enqueues
// the swapped buffer to the forwarder.
func (h *Handle) Flush() error {
	h.mu.Lock()
	out := h.buf
	h.buf = nil
	h.mu.Unlock()

	if h.broken.get() {
		return ErrBrokenPipe
	}
	select {
	case h.msgs <- writeMsg{data: out}:
		return nil
	case <-h.done:
		h.broken.set()
		return ErrBrokenPipe
	}
}

// Close enqueues a close marker and waits for the forwarder to finish. It is
// idempotent.
func (h *Handle) Close() error {
	h.closed.Do(func() {
		select {
		case h.msgs <- closeMsg{}:
		case <-h.done:
		}
	})
	<-h.done
	return nil
}

// PostPanic discards any buffered bytes without flushing them, dropping a
// half-rendered frame after a handler panic.
func (h *Handle) PostPanic() {
	h.mu.Lock()
	h.buf = nil
	h.mu.Unlock()
}

// Abort force-stops the forwarder without a clean channel close, discarding
// any buffered-but-unflushed bytes and logging an "ungraceful shutdown"
// warning. It models the Rust Drop-while-running path for callers that tear
// a session down via context cancellation rather than an explicit Close.
func (h *Handle) Abort() {
	h.closed.Do(func() {
		h.mu.Lock()
		h.buf = nil
		h.mu.Unlock()
		h.log.Warn("ungraceful sink shutdown")
		h.broken.set()
		close(h.msgs)
	})
}

type atomicBool struct {
	mu sync.Mutex
	v  bool
}

func (b *atomicBool) set() {
	b.mu.Lock()
	b.v = true
	b.mu.Unlock()
}

func (b *atomicBool) get() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.v
}
