// Package input translates raw bytes arriving over the SSH data channel
// into structured key events, handling escape sequences split across
// separate reads.
package input

// Key identifies a recognized key. Unrecognized bytes decode to KeyRune.
type Key int16

const (
	KeyRune Key = iota
	KeyEsc
	KeyEnter
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCtrlC
	KeyCtrlD
)

// Mod is a bitmask of key modifiers.
type Mod uint8

const (
	ModCtrl Mod = 1 << iota
	ModAlt
)

// Event is one decoded input event.
type Event struct {
	Key  Key
	Rune rune
	Mod  Mod
}
