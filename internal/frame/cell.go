package frame

import "github.com/mattn/go-runewidth"

// Cell is a single character cell: one printable rune, its style, and a
// dirty flag used by the diff renderer.
type Cell struct {
	Ch    rune
	Width uint8
	Style Style
	Dirty bool
}

// PutChar writes ch into the cell, tracking width via go-runewidth the same
// way tcell's Cell.PutChars does, and marks the cell dirty if the visible
// content changed. Combining marks are not supported; a zero-width rune is
// stored as a single space.
func (c *Cell) PutChar(ch rune) {
	w := runewidth.RuneWidth(ch)
	if w == 0 {
		ch = ' '
		w = 1
	}
	if c.Ch != ch {
		c.Dirty = true
	}
	c.Ch = ch
	c.Width = uint8(w)
}

// PutStyle sets the cell's style, marking it dirty if it changed.
func (c *Cell) PutStyle(style Style) {
	if c.Style != style {
		c.Dirty = true
	}
	c.Style = style
}

// Buffer is the fixed-size grid of Cells backing a Frame/Terminal.
type Buffer struct {
	cells         []Cell
	width, height int
}

// NewBuffer allocates a cleared buffer of the given size.
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{width: width, height: height}
	b.cells = make([]Cell, width*height)
	b.Clear()
	return b
}

// Size returns the buffer's width and height in cells.
func (b *Buffer) Size() (int, int) {
	return b.width, b.height
}

// Resize reallocates the buffer to the given size, preserving overlapping
// content and marking everything dirty, the same shape as tcell's
// ResizeCells.
func (b *Buffer) Resize(width, height int) {
	if width == b.width && height == b.height {
		return
	}
	newCells := make([]Cell, width*height)
	for i := range newCells {
		newCells[i] = Cell{Ch: ' ', Width: 1, Style: NewStyle(), Dirty: true}
	}
	for row := 0; row < height && row < b.height; row++ {
		for col := 0; col < width && col < b.width; col++ {
			newCells[row*width+col] = b.cells[row*b.width+col]
			newCells[row*width+col].Dirty = true
		}
	}
	b.cells = newCells
	b.width = width
	b.height = height
}

// Clear blanks every cell and marks it dirty.
func (b *Buffer) Clear() {
	for i := range b.cells {
		b.cells[i] = Cell{Ch: ' ', Width: 1, Style: NewStyle(), Dirty: true}
	}
}

func (b *Buffer) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

// Set writes a rune and style at (x, y). Out-of-bounds writes are ignored.
func (b *Buffer) Set(x, y int, ch rune, style Style) {
	if !b.inBounds(x, y) {
		return
	}
	cell := &b.cells[y*b.width+x]
	cell.PutChar(ch)
	cell.PutStyle(style)
}

// Get returns the cell at (x, y).
func (b *Buffer) Get(x, y int) Cell {
	if !b.inBounds(x, y) {
		return Cell{}
	}
	return b.cells[y*b.width+x]
}

func (b *Buffer) clearDirty(x, y int) {
	if b.inBounds(x, y) {
		b.cells[y*b.width+x].Dirty = false
	}
}
