// Package engine implements the Session Engine: the per-session
// cooperative event loop that multiplexes input, resize, animation ticks,
// and asynchronous messages; coalesces bursts; dispatches to an
// application-supplied Handler; isolates handler panics; and performs
// deterministic teardown (spec.md §4.5).
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tuissh/internal/frame"
	"tuissh/internal/input"
)

// maxBatch bounds how many inbound events are drained per wake-up, per
// spec.md §4.5's recommended K=20.
const maxBatch = 20

type inboundKind uint8

const (
	inboundInput inboundKind = iota
	inboundResize
)

type inboundEvent struct {
	kind          inboundKind
	input         input.Event
	width, height uint16
}

// Engine is the Session Engine of spec.md §4.5: one per PTY channel, owning
// the handler, the Frame Terminal, the Engine Context, and both queues for
// the lifetime of the session.
type Engine[M any] struct {
	handler Handler[M]
	term    *frame.Terminal
	ctx     *Context[M]

	inbound *queue[inboundEvent]
	async   *queue[M]
	ticker  *time.Ticker

	title string
	log   *logrus.Entry
}

// New constructs an Engine for handler, drawing into term, with the given
// initial viewport. It does not start the loop; call Run.
func New[M any](handler Handler[M], term *frame.Terminal, area frame.Rect, log *logrus.Entry) *Engine[M] {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	async := newQueue[M]()
	rate, ok := handler.TicksPerSecond()
	e := &Engine[M]{
		handler: handler,
		term:    term,
		ctx:     newContext[M](area, async, rate, ok),
		inbound: newQueue[inboundEvent](),
		async:   async,
		log:     log,
	}
	if ok && rate > 0 {
		e.ticker = time.NewTicker(time.Second / time.Duration(rate))
	}
	return e
}

// PushInput enqueues a decoded input event for the next wake-up. It
// reports false once the engine has stopped accepting events.
func (e *Engine[M]) PushInput(ev input.Event) bool {
	return e.inbound.push(inboundEvent{kind: inboundInput, input: ev})
}

// PushResize enqueues a window-change event, clamped to 16 bits by the
// caller (see frame.ClampRect).
func (e *Engine[M]) PushResize(width, height uint16) bool {
	return e.inbound.push(inboundEvent{kind: inboundResize, width: width, height: height})
}

// SetTitle records a window title to be set once, immediately after Enter,
// the next time Run starts the session (spec.md §4.2's set_title operation,
// applied during the Preparing -> Running transition spec.md §4.5
// describes as "optionally set title"). Must be called before Run; a zero
// value means no title is set. It does not re-title a session already
// running.
func (e *Engine[M]) SetTitle(title string) {
	e.title = title
}

// Close marks the inbound queue closed: the next drain, once it empties,
// causes Run to tear down gracefully with an empty farewell (spec.md
// §4.5's "inbound queue closed" transition).
func (e *Engine[M]) Close() {
	e.inbound.close()
}

// Run executes the event loop until the handler terminates the session,
// the inbound queue closes, or parent is cancelled. It performs Enter
// before the loop and, once Enter has succeeded, Leave on every exit path
// except parent cancellation, which discards pending output via abort.
func (e *Engine[M]) Run(parent context.Context) error {
	if e.ticker != nil {
		defer e.ticker.Stop()
	}
	if err := e.term.Enter(); err != nil {
		return fmt.Errorf("tuissh: engine: enter: %w", err)
	}
	if e.title != "" {
		if err := e.term.SetTitle(e.title); err != nil {
			e.log.WithError(err).Warn("failed to set terminal title")
		}
	}

	if err := e.renderFrame(); err != nil {
		e.log.WithError(err).Warn("initial render failed")
		e.teardown("")
		return nil
	}

	var tickC <-chan time.Time
	if e.ticker != nil {
		tickC = e.ticker.C
	}

	for {
		select {
		case <-parent.Done():
			e.abort()
			return nil

		case <-e.inbound.wait():
			batch := e.inbound.drain(maxBatch)
			if len(batch) == 0 {
				if e.inbound.isClosedAndEmpty() {
					e.teardown("")
					return nil
				}
				continue
			}
			result := e.processBatch(batch)
			if done, _ := e.handleResult(result); done {
				return nil
			}
			if e.inbound.isClosedAndEmpty() {
				e.teardown("")
				return nil
			}

		case <-e.async.wait():
			msgs := e.async.drain(1)
			if len(msgs) == 0 {
				continue
			}
			r, panicked := e.safeCallback(func() Result { return e.handler.OnMessage(e.ctx, msgs[0]) })
			if panicked {
				e.handler = newFallbackHandler[M]()
				r = Continue()
			}
			if done, _ := e.handleResult(r); done {
				return nil
			}

		case <-tickC:
			r, panicked := e.safeCallback(func() Result { return e.handler.OnAnimation(e.ctx) })
			if panicked {
				e.handler = newFallbackHandler[M]()
				r = Continue()
			}
			if done, _ := e.handleResult(r); done {
				return nil
			}
		}
	}
}

// processBatch implements the coalescing rule of spec.md §4.5: scan in
// reverse for the last resize and apply it alone after all inputs in the
// batch, in received order, have been folded.
func (e *Engine[M]) processBatch(batch []inboundEvent) Result {
	lastResize := -1
	for i := len(batch) - 1; i >= 0; i-- {
		if batch[i].kind == inboundResize {
			lastResize = i
			break
		}
	}

	result := Continue()
	for _, ev := range batch {
		if ev.kind != inboundInput {
			continue
		}
		r, panicked := e.safeCallback(func() Result { return e.handler.OnInput(e.ctx, ev.input) })
		if panicked {
			e.handler = newFallbackHandler[M]()
			r = Continue()
		}
		if ev.input.Key == input.KeyCtrlC {
			// Ctrl+C terminates one level above the handler (spec.md §6),
			// even if the callback itself panicked; a handler-chosen
			// Terminate still wins its own farewell because fold keeps
			// the left side once it is already Terminate.
			r = r.fold(Terminate(""))
		}
		result = result.fold(r)
	}

	if lastResize >= 0 {
		rsz := batch[lastResize]
		area := frame.ClampRect(uint32(rsz.width), uint32(rsz.height))
		e.term.Resize(area)
		e.ctx.setSize(area)
		r, panicked := e.safeCallback(func() Result { return e.handler.OnResize(e.ctx, rsz.width, rsz.height) })
		if panicked {
			e.handler = newFallbackHandler[M]()
			r = Continue()
		}
		result = result.fold(r)
	}

	return result
}

// handleResult acts on a folded Result: Terminate tears down and reports
// done; Render draws a frame, tearing down on I/O failure (sink broken
// pipe: the peer is gone); Continue is a no-op.
func (e *Engine[M]) handleResult(result Result) (done bool, err error) {
	switch {
	case result.IsTerminate():
		e.teardown(result.Farewell())
		return true, nil
	case result.IsRender():
		if err := e.renderFrame(); err != nil {
			e.log.WithError(err).Warn("render failed, tearing down session")
			e.teardown("")
			return true, err
		}
	}
	return false, nil
}

// renderFrame runs the handler's Draw on an isolated goroutine so a panic
// cannot corrupt the engine's own stack, and discards a half-drawn frame
// on panic before swapping in the fallback handler (spec.md §4.5.3).
func (e *Engine[M]) renderFrame() error {
	type outcome struct {
		err      error
		panicked bool
	}
	done := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				e.log.WithField("panic", r).Error("handler draw panicked")
				o.panicked = true
			}
			done <- o
		}()
		o.err = e.term.Draw(func(f *frame.Frame) {
			e.handler.Draw(f)
		})
	}()

	o := <-done
	if o.panicked {
		e.term.PostPanic()
		e.handler = newFallbackHandler[M]()
		// The fallback handler itself never panics, so this recurses at
		// most once: the user sees the fallback panel from the very draw
		// that tripped the panic, not from some later redraw.
		return e.renderFrame()
	}
	return o.err
}

// safeCallback invokes fn with a panic guard, matching spec.md §4.5's
// requirement that a panicking callback never crashes the session task.
func (e *Engine[M]) safeCallback(fn func() Result) (result Result, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("panic", r).Error("handler callback panicked")
			panicked = true
			result = Continue()
		}
	}()
	result = fn()
	return
}

func (e *Engine[M]) teardown(farewell string) {
	if err := e.term.Leave(farewell); err != nil {
		e.log.WithError(err).Warn("error during session teardown")
	}
}

// abort tears the session down on the session-task abort (drop) path:
// parent was cancelled out from under a running session, so there is no
// graceful farewell to write and no guarantee the peer is even still
// reading. Buffered-but-unflushed bytes are discarded rather than flushed,
// matching spec.md §4.5's "Any state → Closed on session-task abort" and
// §5's "unflushed buffered bytes are lost on ungraceful shutdown by
// design."
func (e *Engine[M]) abort() {
	e.term.AbortSink()
}
