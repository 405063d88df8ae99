package sshadapter

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ptyRequest is the decoded payload of an SSH "pty-req" channel request.
// x/crypto/ssh delivers pty-req and window-change as opaque request
// payloads rather than typed callbacks, so this library parses them
// itself, the same byte-reader shape as the teacher's
// sshproxy.InterpretPtyReq/InterpretWindowChange (see DESIGN.md).
type ptyRequest struct {
	Term          string
	Width, Height uint32
}

func parsePtyRequest(payload []byte) (*ptyRequest, error) {
	r := bytes.NewReader(payload)
	var termLen, width, height uint32
	if err := binary.Read(r, binary.BigEndian, &termLen); err != nil {
		return nil, fmt.Errorf("tuissh: sshadapter: pty-req term length: %w", err)
	}
	term := make([]byte, termLen)
	if err := binary.Read(r, binary.BigEndian, &term); err != nil {
		return nil, fmt.Errorf("tuissh: sshadapter: pty-req term: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &width); err != nil {
		return nil, fmt.Errorf("tuissh: sshadapter: pty-req width: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &height); err != nil {
		return nil, fmt.Errorf("tuissh: sshadapter: pty-req height: %w", err)
	}
	return &ptyRequest{Term: string(term), Width: width, Height: height}, nil
}

// windowChange is the decoded payload of an SSH "window-change" request.
type windowChange struct {
	Width, Height uint32
}

func parseWindowChange(payload []byte) (*windowChange, error) {
	r := bytes.NewReader(payload)
	var width, height uint32
	if err := binary.Read(r, binary.BigEndian, &width); err != nil {
		return nil, fmt.Errorf("tuissh: sshadapter: window-change width: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &height); err != nil {
		return nil, fmt.Errorf("tuissh: sshadapter: window-change height: %w", err)
	}
	return &windowChange{Width: width, Height: height}, nil
}
