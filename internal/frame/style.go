package frame

// Color is an ANSI 256-color index. ColorDefault selects the terminal's own
// default color.
type Color int32

// ColorDefault selects the terminal's default foreground/background: every
// emitted style starts with an SGR reset, so the color of an earlier cell
// does not carry over.
const ColorDefault Color = -1

// Attr is a bitmask of text attributes.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrUnderline
	AttrReverse
	AttrDim
	AttrBlink
)

// Style holds foreground, background, and attributes in one comparable
// struct value, modelled on tcell's Style but without its bit-packing.
type Style struct {
	fg, bg Color
	attrs  Attr
}

// NewStyle returns the default style: default colors, no attributes. (The
// zero Style value is not the default style: its colors are index 0.)
func NewStyle() Style {
	return Style{fg: ColorDefault, bg: ColorDefault}
}

func (s Style) Foreground(c Color) Style {
	s.fg = c
	return s
}

func (s Style) Background(c Color) Style {
	s.bg = c
	return s
}

func (s Style) Bold(on bool) Style      { return s.setAttr(AttrBold, on) }
func (s Style) Underline(on bool) Style { return s.setAttr(AttrUnderline, on) }
func (s Style) Reverse(on bool) Style   { return s.setAttr(AttrReverse, on) }
func (s Style) Dim(on bool) Style       { return s.setAttr(AttrDim, on) }
func (s Style) Blink(on bool) Style     { return s.setAttr(AttrBlink, on) }

func (s Style) setAttr(a Attr, on bool) Style {
	if on {
		s.attrs |= a
	} else {
		s.attrs &^= a
	}
	return s
}

// Decompose returns the style's foreground, background, and attributes.
func (s Style) Decompose() (Color, Color, Attr) {
	return s.fg, s.bg, s.attrs
}
