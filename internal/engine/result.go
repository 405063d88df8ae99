package engine

// kind is the internal tag of a Result.
type kind uint8

const (
	continueKind kind = iota
	renderKind
	terminateKind
)

// Result is the CallbackResult sum type of spec.md §3: the value every
// handler callback (other than Draw) returns.
type Result struct {
	k        kind
	farewell string
}

// Continue does nothing; it is the fold identity.
func Continue() Result { return Result{k: continueKind} }

// Render requests a frame be drawn after the current callback returns.
func Render() Result { return Result{k: renderKind} }

// Terminate requests graceful shutdown, writing farewell to the client
// before the channel closes.
func Terminate(farewell string) Result { return Result{k: terminateKind, farewell: farewell} }

// IsContinue, IsRender, and IsTerminate classify the result.
func (r Result) IsContinue() bool  { return r.k == continueKind }
func (r Result) IsRender() bool    { return r.k == renderKind }
func (r Result) IsTerminate() bool { return r.k == terminateKind }

// Farewell returns the message attached to a Terminate result (empty for
// any other kind).
func (r Result) Farewell() string { return r.farewell }

// fold combines r with next under the dominance law of spec.md §3:
// Terminate dominates everything, Render dominates Continue, Continue is
// the identity. Once r is already Terminate, fold keeps it (and its
// farewell) regardless of next.
func (r Result) fold(next Result) Result {
	if r.k == terminateKind {
		return r
	}
	if next.k == terminateKind {
		return next
	}
	if r.k == renderKind || next.k == renderKind {
		return Render()
	}
	return Continue()
}
