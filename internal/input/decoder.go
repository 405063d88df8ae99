package input

import "unicode/utf8"

type state int

const (
	stInit state = iota
	stEsc
	stCsi
)

// Decoder is a stateful byte-to-Event translator, owned by one SSH channel.
// Feed may be called repeatedly with arbitrary-sized byte slices, including
// ones that split an escape sequence or a multi-byte UTF-8 rune across two
// calls; the decoder carries the partial sequence forward.
type Decoder struct {
	st     state
	utfBuf []byte
}

// NewDecoder returns a fresh decoder in its initial state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes data and returns the events it produced. Unknown or
// malformed sequences are emitted as their constituent character events —
// never silently discarded.
func (d *Decoder) Feed(data []byte) []Event {
	var events []Event
	for _, b := range data {
		events = d.step(b, events)
	}
	return events
}

func (d *Decoder) step(b byte, events []Event) []Event {
	switch d.st {
	case stEsc:
		if b == '[' {
			d.st = stCsi
			return events
		}
		// Lone Esc, not a CSI sequence: emit Esc, then reprocess b fresh.
		events = append(events, Event{Key: KeyEsc})
		d.st = stInit
		return d.step(b, events)

	case stCsi:
		d.st = stInit
		switch b {
		case 'A':
			return append(events, Event{Key: KeyUp})
		case 'B':
			return append(events, Event{Key: KeyDown})
		case 'C':
			return append(events, Event{Key: KeyRight})
		case 'D':
			return append(events, Event{Key: KeyLeft})
		default:
			// Unrecognized CSI final byte: surface the constituent bytes
			// rather than discarding the sequence.
			events = append(events, Event{Key: KeyEsc}, Event{Key: KeyRune, Rune: '['})
			return d.step(b, events)
		}
	}

	// stInit
	switch {
	case b == 0x03:
		return append(events, Event{Key: KeyCtrlC})
	case b == 0x04:
		return append(events, Event{Key: KeyCtrlD})
	case b == 0x0d:
		return append(events, Event{Key: KeyEnter})
	case b == 0x1b:
		d.st = stEsc
		return events
	case b < 0x20:
		// Other C0 control bytes: recover the letter and mark Ctrl, so no
		// byte is dropped silently.
		return append(events, Event{Key: KeyRune, Rune: rune(b | 0x60), Mod: ModCtrl})
	case b < 0x80:
		return append(events, Event{Key: KeyRune, Rune: rune(b)})
	default:
		return d.stepUTF8(b, events)
	}
}

func (d *Decoder) stepUTF8(b byte, events []Event) []Event {
	d.utfBuf = append(d.utfBuf, b)
	if utf8.FullRune(d.utfBuf) {
		r, size := utf8.DecodeRune(d.utfBuf)
		first := d.utfBuf[0]
		d.utfBuf = d.utfBuf[size:]
		if r == utf8.RuneError && size <= 1 {
			// Malformed byte: still surface it rather than drop it.
			return append(events, Event{Key: KeyRune, Rune: rune(first)})
		}
		return append(events, Event{Key: KeyRune, Rune: r})
	}
	if len(d.utfBuf) >= utf8.UTFMax {
		// Too many continuation bytes without completing a rune: flush as
		// raw replacement runes so nothing is silently discarded.
		stale := d.utfBuf
		d.utfBuf = nil
		for _, sb := range stale {
			events = append(events, Event{Key: KeyRune, Rune: rune(sb)})
		}
	}
	return events
}

// Waiting reports whether the decoder is mid-sequence (a lone Esc, an
// incomplete CSI, or a partial UTF-8 rune) and needs more bytes.
func (d *Decoder) Waiting() bool {
	return d.st != stInit || len(d.utfBuf) > 0
}
