package engine

import "errors"

// Error kinds from spec.md §7. These are sentinels, not a typed hierarchy —
// the idiomatic Go equivalent of the Rust original's error.rs enum is
// errors.Is/errors.As over sentinel values plus %w wrapping (see
// DESIGN.md for why no third-party error library is used here).
var (
	// ErrUnknownChannel: data or window-change arrived for a channel with
	// no recorded state.
	ErrUnknownChannel = errors.New("tuissh: unknown channel")
	// ErrPtyRequestBeforeOpen: a pty-req arrived for a channel that was
	// never recorded as opened.
	ErrPtyRequestBeforeOpen = errors.New("tuissh: pty-req before channel open")
	// ErrPtyRequestTwice: a second pty-req arrived for an already-running
	// channel.
	ErrPtyRequestTwice = errors.New("tuissh: pty-req sent twice")
	// ErrSessionClosed: the inbound queue drained and closed; the engine
	// exited cleanly.
	ErrSessionClosed = errors.New("tuissh: session closed")
)
