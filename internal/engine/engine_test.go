package engine

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuissh/internal/frame"
	"tuissh/internal/input"
	"tuissh/internal/sink"
)

// fakeChannel is an in-memory io.WriteCloser standing in for an
// ssh.Channel, so Terminal/Sink can be exercised without a real transport.
type fakeChannel struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (f *fakeChannel) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.Write(p)
}

func (f *fakeChannel) Close() error { return nil }

func (f *fakeChannel) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.String()
}

func newTestTerminal() (*frame.Terminal, *fakeChannel) {
	ch := &fakeChannel{}
	sk := sink.New(ch, nil)
	return frame.NewTerminal(sk, frame.ClampRect(80, 24)), ch
}

// recordingHandler records every callback invocation for assertions.
type recordingHandler struct {
	mu          sync.Mutex
	inputs      []input.Event
	sizeAtInput frame.Rect
	resizes     []resizeCall
	draws       int
}

type resizeCall struct{ w, h uint16 }

func (h *recordingHandler) OnInput(ctx *Context[string], ev input.Event) Result {
	h.mu.Lock()
	h.inputs = append(h.inputs, ev)
	h.sizeAtInput = ctx.CurrentSize()
	h.mu.Unlock()
	return Continue()
}

func (h *recordingHandler) OnResize(_ *Context[string], w, rows uint16) Result {
	h.mu.Lock()
	h.resizes = append(h.resizes, resizeCall{w, rows})
	h.mu.Unlock()
	return Render()
}

func (h *recordingHandler) OnMessage(*Context[string], string) Result { return Continue() }
func (h *recordingHandler) OnAnimation(*Context[string]) Result      { return Continue() }

func (h *recordingHandler) Draw(*frame.Frame) {
	h.mu.Lock()
	h.draws++
	h.mu.Unlock()
}

func (h *recordingHandler) TicksPerSecond() (uint8, bool) { return 0, false }

func runUntilCancel(t *testing.T, e *Engine[string], wait time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = e.Run(ctx)
		close(done)
	}()
	time.Sleep(wait)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("engine did not exit after cancellation")
	}
}

func TestEngine_ResizeCoalescingAndInputOrder(t *testing.T) {
	term, _ := newTestTerminal()
	h := &recordingHandler{}
	e := New[string](h, term, frame.ClampRect(80, 24), nil)

	e.PushResize(80, 24)
	e.PushInput(input.Event{Key: input.KeyRune, Rune: 'a'})
	e.PushInput(input.Event{Key: input.KeyRune, Rune: 'b'})
	e.PushResize(200, 50)

	runUntilCancel(t, e, 100*time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.resizes, 1, "only the last resize in the batch should reach the handler")
	assert.Equal(t, resizeCall{200, 50}, h.resizes[0])
	require.Len(t, h.inputs, 2)
	assert.Equal(t, 'a', h.inputs[0].Rune)
	assert.Equal(t, 'b', h.inputs[1].Rune)
	assert.Equal(t, frame.ClampRect(80, 24), h.sizeAtInput, "inputs see the pre-batch viewport size")
}

func TestEngine_RoundTripResizeUpdatesCurrentSize(t *testing.T) {
	term, _ := newTestTerminal()
	h := &recordingHandler{}
	e := New[string](h, term, frame.ClampRect(80, 24), nil)

	e.PushResize(120, 40)
	runUntilCancel(t, e, 60*time.Millisecond)

	assert.Equal(t, frame.ClampRect(120, 40), e.ctx.CurrentSize())
}

// panicOnceHandler panics on its first Draw, then behaves like
// recordingHandler thereafter.
type panicOnceHandler struct {
	recordingHandler
	mu       sync.Mutex
	panicked bool
}

func (h *panicOnceHandler) Draw(f *frame.Frame) {
	h.mu.Lock()
	already := h.panicked
	h.panicked = true
	h.mu.Unlock()
	if !already {
		panic("boom")
	}
	h.recordingHandler.Draw(f)
}

func TestEngine_DrawPanicSwapsToFallbackAndSessionSurvives(t *testing.T) {
	term, ch := newTestTerminal()
	h := &panicOnceHandler{}
	e := New[string](h, term, frame.ClampRect(80, 24), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = e.Run(ctx)
		close(done)
	}()

	// Give the initial render (which panics) time to run and swap the
	// handler, then confirm the session still accepts input afterward.
	time.Sleep(50 * time.Millisecond)
	e.PushInput(input.Event{Key: input.KeyRune, Rune: 'z'})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Empty(t, h.inputs, "input after the panic should reach the fallback handler, not the original")
	assert.NotEmpty(t, ch.String(), "channel is still open and receiving output after the panic")
}

// panicOnCallbackHandler panics inside OnInput exactly once.
type panicOnCallbackHandler struct {
	recordingHandler
	mu       sync.Mutex
	panicked bool
}

func (h *panicOnCallbackHandler) OnInput(ctx *Context[string], ev input.Event) Result {
	h.mu.Lock()
	already := h.panicked
	h.panicked = true
	h.mu.Unlock()
	if !already {
		panic("boom")
	}
	return h.recordingHandler.OnInput(ctx, ev)
}

func TestEngine_CallbackPanicSwapsToFallback(t *testing.T) {
	term, _ := newTestTerminal()
	h := &panicOnCallbackHandler{}
	e := New[string](h, term, frame.ClampRect(80, 24), nil)

	e.PushInput(input.Event{Key: input.KeyRune, Rune: 'a'})
	runUntilCancel(t, e, 80*time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Empty(t, h.inputs, "the original handler never recorded the panicking call")
}

// terminatingHandler always terminates on input, carrying a fixed farewell.
type terminatingHandler struct {
	farewell string
}

func (h *terminatingHandler) OnInput(*Context[string], input.Event) Result { return Terminate(h.farewell) }
func (h *terminatingHandler) OnResize(*Context[string], uint16, uint16) Result { return Continue() }
func (h *terminatingHandler) OnMessage(*Context[string], string) Result        { return Continue() }
func (h *terminatingHandler) OnAnimation(*Context[string]) Result              { return Continue() }
func (h *terminatingHandler) Draw(*frame.Frame)                                {}
func (h *terminatingHandler) TicksPerSecond() (uint8, bool)                    { return 0, false }

func TestEngine_FarewellBytesLFThenCR(t *testing.T) {
	term, ch := newTestTerminal()
	h := &terminatingHandler{farewell: "hello\nworld"}
	e := New[string](h, term, frame.ClampRect(80, 24), nil)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	e.PushInput(input.Event{Key: input.KeyRune, Rune: 'q'})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not terminate")
	}

	assert.Contains(t, ch.String(), "hello\n\rworld\n\r")
}

// defaultHandler exercises the embeddable DefaultInputHandler.
type defaultHandler struct {
	DefaultInputHandler[string]
}

func (defaultHandler) OnResize(*Context[string], uint16, uint16) Result { return Continue() }
func (defaultHandler) OnMessage(*Context[string], string) Result        { return Continue() }
func (defaultHandler) OnAnimation(*Context[string]) Result              { return Continue() }
func (defaultHandler) Draw(*frame.Frame)                                {}
func (defaultHandler) TicksPerSecond() (uint8, bool)                    { return 0, false }

func TestEngine_CtrlDDefaultTerminatesWithDocumentedFarewell(t *testing.T) {
	term, ch := newTestTerminal()
	e := New[string](defaultHandler{}, term, frame.ClampRect(80, 24), nil)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	e.PushInput(input.Event{Key: input.KeyCtrlD})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not terminate on Ctrl+D")
	}

	assert.Contains(t, ch.String(), "See you next time\n\rSmelly furries\n\r")
}

func TestEngine_CtrlCTerminatesRegardlessOfHandler(t *testing.T) {
	term, _ := newTestTerminal()
	e := New[string](defaultHandler{}, term, frame.ClampRect(80, 24), nil)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	e.PushInput(input.Event{Key: input.KeyCtrlC})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not terminate on Ctrl+C")
	}
}

func TestEngine_InboundQueueClosedTearsDownCleanly(t *testing.T) {
	term, _ := newTestTerminal()
	h := &recordingHandler{}
	e := New[string](h, term, frame.ClampRect(80, 24), nil)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	e.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not exit after inbound queue closed")
	}
}

// TestEngine_ParentCancellationAbortsRatherThanFlushes exercises the
// session-task abort (drop) path distinct from graceful teardown: parent
// cancellation must discard buffered bytes and log an ungraceful-shutdown
// warning instead of writing the normal show-cursor/leave-alt-screen/
// farewell sequence Leave produces.
func TestEngine_ParentCancellationAbortsRatherThanFlushes(t *testing.T) {
	hook := logtest.NewLocal(logrus.StandardLogger())

	term, ch := newTestTerminal()
	h := &recordingHandler{}
	e := New[string](h, term, frame.ClampRect(80, 24), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = e.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("engine did not exit after parent cancellation")
	}

	content := ch.String()
	assert.NotContains(t, content, "\x1b[?25h", "graceful Leave's show-cursor sequence must not appear on abort")
	assert.NotContains(t, content, "\x1b[?1049l", "graceful Leave's leave-alt-screen sequence must not appear on abort")

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "ungraceful sink shutdown" {
			warned = true
		}
	}
	assert.True(t, warned, "Abort should log an ungraceful shutdown warning")
}

func TestEngine_AnimationTicksDriveRender(t *testing.T) {
	term, _ := newTestTerminal()
	h := &tickingHandler{}
	e := New[string](h, term, frame.ClampRect(80, 24), nil)

	runUntilCancel(t, e, 260*time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Greater(t, h.ticks, 0)
}

type tickingHandler struct {
	mu    sync.Mutex
	ticks int
}

func (h *tickingHandler) OnInput(*Context[string], input.Event) Result     { return Continue() }
func (h *tickingHandler) OnResize(*Context[string], uint16, uint16) Result { return Continue() }
func (h *tickingHandler) OnMessage(*Context[string], string) Result       { return Continue() }
func (h *tickingHandler) OnAnimation(*Context[string]) Result {
	h.mu.Lock()
	h.ticks++
	h.mu.Unlock()
	return Render()
}
func (h *tickingHandler) Draw(*frame.Frame)             {}
func (h *tickingHandler) TicksPerSecond() (uint8, bool) { return 10, true }

func TestEngine_AsyncMessageDeliveredOnce(t *testing.T) {
	term, _ := newTestTerminal()
	h := &messageHandler{}
	e := New[string](h, term, frame.ClampRect(80, 24), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = e.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	sender := e.ctx.TerminalChannel()
	sender.Send("ping")

	time.Sleep(80 * time.Millisecond)
	cancel()
	<-done

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.messages, 1)
	assert.Equal(t, "ping", h.messages[0])
}

type messageHandler struct {
	mu       sync.Mutex
	messages []string
}

func (h *messageHandler) OnInput(*Context[string], input.Event) Result     { return Continue() }
func (h *messageHandler) OnResize(*Context[string], uint16, uint16) Result { return Continue() }
func (h *messageHandler) OnMessage(_ *Context[string], msg string) Result {
	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()
	return Render()
}
func (h *messageHandler) OnAnimation(*Context[string]) Result { return Continue() }
func (h *messageHandler) Draw(*frame.Frame)                   {}
func (h *messageHandler) TicksPerSecond() (uint8, bool)       { return 0, false }
