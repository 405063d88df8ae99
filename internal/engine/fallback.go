package engine

import (
	"tuissh/internal/frame"
)

// fallbackHandler is the library-provided handler swapped in after a
// panicking application handler (spec.md §4.5). It is pre-constructed and
// never user-supplied: its only job is to keep the session alive with a
// static error panel.
type fallbackHandler[M any] struct {
	DefaultInputHandler[M]
}

func newFallbackHandler[M any]() *fallbackHandler[M] {
	return &fallbackHandler[M]{}
}

func (f *fallbackHandler[M]) OnResize(_ *Context[M], _, _ uint16) Result {
	return Render()
}

func (f *fallbackHandler[M]) OnMessage(_ *Context[M], _ M) Result {
	return Continue()
}

func (f *fallbackHandler[M]) OnAnimation(_ *Context[M]) Result {
	return Continue()
}

func (f *fallbackHandler[M]) TicksPerSecond() (uint8, bool) {
	return 0, false
}

const fallbackMessage = "an internal error occurred"

func (f *fallbackHandler[M]) Draw(fr *frame.Frame) {
	fr.Clear()
	area := fr.Area()
	msg := fallbackMessage
	y := int(area.Height) / 2
	x := (int(area.Width) - len(msg)) / 2
	if x < 0 {
		x = 0
	}
	fr.SetString(x, y, msg, frame.NewStyle().Reverse(true))
}

var _ Handler[struct{}] = (*fallbackHandler[struct{}])(nil)
