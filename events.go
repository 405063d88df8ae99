package tuissh

import "tuissh/internal/input"

// Event, Key, and Mod re-export the Input Decoder's event vocabulary
// (spec.md §4.3) so application handlers never need to reach into
// internal/input directly.
type (
	Event = input.Event
	Key   = input.Key
	Mod   = input.Mod
)

// Key constants recognized by the Input Decoder.
const (
	KeyRune  = input.KeyRune
	KeyEsc   = input.KeyEsc
	KeyEnter = input.KeyEnter
	KeyUp    = input.KeyUp
	KeyDown  = input.KeyDown
	KeyLeft  = input.KeyLeft
	KeyRight = input.KeyRight
	KeyCtrlC = input.KeyCtrlC
	KeyCtrlD = input.KeyCtrlD
)

// Modifier bits recognized alongside KeyRune events.
const (
	ModCtrl = input.ModCtrl
	ModAlt  = input.ModAlt
)
