package frame

import (
	"strings"

	"tuissh/internal/sink"
)

// Terminal is the Frame Terminal: it composes a *sink.Handle with a Buffer
// and knows how to diff-render the buffer's dirty cells as ANSI escapes,
// the same algorithm as tcell's tScreen.draw/drawCell, simplified to direct
// 256-color SGR sequences (see DESIGN.md).
type Terminal struct {
	sink *sink.Handle
	buf  *Buffer
	area Rect

	cx, cy   int
	curStyle Style
	styleSet bool
}

// NewTerminal builds a Frame Terminal over sk with the given fixed
// viewport.
func NewTerminal(sk *sink.Handle, area Rect) *Terminal {
	return &Terminal{
		sink: sk,
		buf:  NewBuffer(int(area.Width), int(area.Height)),
		area: area,
		cx:   -1, cy: -1,
	}
}

// Enter emits enter-alternate-screen, hide-cursor, and clear. Called once
// before the first draw.
func (t *Terminal) Enter() error {
	if _, err := t.sink.Write([]byte(seqEnterAlt + seqHideCursor + seqClear)); err != nil {
		return err
	}
	t.cx, t.cy = -1, -1
	return t.sink.Flush()
}

// SetTitle emits the set-window-title escape sequence.
func (t *Terminal) SetTitle(title string) error {
	if _, err := t.sink.Write([]byte(seqSetTitle(title))); err != nil {
		return err
	}
	return t.sink.Flush()
}

// Resize adjusts the fixed viewport. It does not redraw.
func (t *Terminal) Resize(area Rect) {
	t.area = area
	t.buf.Resize(int(area.Width), int(area.Height))
	t.cx, t.cy = -1, -1
}

// Area returns the terminal's current viewport rectangle.
func (t *Terminal) Area() Rect {
	return t.area
}

// Draw synchronously diff-renders a new frame: cb is called with a *Frame
// bound to the terminal's buffer, then the dirty cells are rendered and
// flushed.
func (t *Terminal) Draw(cb func(*Frame)) error {
	f := &Frame{buf: t.buf, area: t.area}
	cb(f)

	var out strings.Builder
	w, h := t.buf.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cell := t.buf.Get(x, y)
			if !cell.Dirty {
				continue
			}
			t.writeCell(&out, x, y, cell)
			t.buf.clearDirty(x, y)
		}
	}
	if out.Len() == 0 {
		return nil
	}
	if _, err := t.sink.Write([]byte(out.String())); err != nil {
		return err
	}
	return t.sink.Flush()
}

func (t *Terminal) writeCell(out *strings.Builder, x, y int, cell Cell) {
	if t.cx != x || t.cy != y {
		out.WriteString(seqGoto(x, y))
		t.cx, t.cy = x, y
	}
	if !t.styleSet || cell.Style != t.curStyle {
		if seq := seqStyle(cell.Style); seq != "" {
			out.WriteString(seq)
		} else {
			out.WriteString(seqReset)
		}
		t.curStyle = cell.Style
		t.styleSet = true
	}
	out.WriteRune(cell.Ch)
	t.cx += int(cell.Width)
}

// PostPanic discards any bytes buffered by an aborted Draw call without
// flushing them, dropping a half-rendered frame after a handler panic.
func (t *Terminal) PostPanic() {
	t.sink.PostPanic()
}

// AbortSink force-stops the underlying sink without a graceful close: any
// buffered-but-unflushed bytes are discarded instead of being written out,
// and the forwarder goroutine is torn down with a warn-level log rather
// than the normal flush-then-close sequence. Used on session-task abort
// (parent context cancellation), which spec.md §4.5/§5 treats as
// ungraceful shutdown with no guarantee about the final frame.
func (t *Terminal) AbortSink() {
	t.sink.Abort()
}

// Leave emits show-cursor, leave-alternate-screen, writes farewell with
// every '\n' translated to "\n\r" (LF then CR, matching a raw terminal
// without LF-to-CRLF translation), followed by a final "\n\r", flushes, and
// closes the sink.
func (t *Terminal) Leave(farewell string) error {
	translated := strings.ReplaceAll(farewell, "\n", "\n\r")
	payload := seqShowCursor + seqLeaveAlt + translated + "\n\r"
	if _, err := t.sink.Write([]byte(payload)); err != nil {
		_ = t.sink.Close()
		return err
	}
	if err := t.sink.Flush(); err != nil {
		_ = t.sink.Close()
		return err
	}
	return t.sink.Close()
}
