package engine

import (
	"tuissh/internal/frame"
	"tuissh/internal/input"
)

// Handler is the application-supplied terminal handler contract of spec.md
// §3/§4.4: the capability set the engine invokes on every callback. M is
// the concrete type of the handler's asynchronous message payload.
type Handler[M any] interface {
	// OnInput handles one decoded input event.
	OnInput(ctx *Context[M], ev input.Event) Result
	// OnResize handles the single newest resize in a coalesced batch.
	OnResize(ctx *Context[M], width, height uint16) Result
	// OnMessage handles one asynchronous message posted via
	// Context.TerminalChannel.
	OnMessage(ctx *Context[M], msg M) Result
	// OnAnimation handles one animation tick, only ever invoked when the
	// handler the engine was constructed with reported an active rate from
	// TicksPerSecond (a fallback handler swapped in later receives those
	// same ticks).
	OnAnimation(ctx *Context[M]) Result
	// Draw renders the handler's view into frame. It must perform no side
	// effects beyond drawing: it runs inside the engine's panic-isolated
	// render goroutine.
	Draw(f *frame.Frame)
	// TicksPerSecond declares the handler's default animation rate. ok is
	// false if the handler has no animation (the engine then never starts
	// a ticker for it).
	TicksPerSecond() (rate uint8, ok bool)
}

// DefaultInputHandler is an embeddable helper giving handlers the Ctrl+D
// quit chord described in spec.md §6 for free, matching the default method
// body of the original's SshTerminal::on_input (see SPEC_FULL.md §10).
// Handlers that want a different farewell or quit key embed
// DefaultInputHandler[M] (instantiated at their own message type) and
// override OnInput.
type DefaultInputHandler[M any] struct{}

// DefaultFarewell is the message spec.md §6 specifies for the builtin
// Ctrl+D default.
const DefaultFarewell = "See you next time\nSmelly furries"

// OnInput implements the default: Ctrl+D terminates with DefaultFarewell,
// everything else is a no-op.
func (DefaultInputHandler[M]) OnInput(_ *Context[M], ev input.Event) Result {
	if ev.Key == input.KeyCtrlD {
		return Terminate(DefaultFarewell)
	}
	return Continue()
}
