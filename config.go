// Package tuissh serves a full-screen terminal UI over SSH: clients
// connect with a stock SSH client, are auto-accepted, receive an
// allocated PTY, and drive an application-supplied terminal Handler that
// receives keyboard/resize/message events and draws frames into a
// fixed-size viewport (spec.md §1).
package tuissh

import (
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"tuissh/internal/sshadapter"
)

// Config enumerates the Server Builder's configuration surface (spec.md
// §4.7/§6).
type Config struct {
	// ListenAddr is the TCP address to bind, e.g. ":2222". Required.
	ListenAddr string

	// Title, if non-empty, is set as the client terminal's window title
	// once per session, right after entering the alternate screen
	// (spec.md §4.2's set_title operation).
	Title string

	// HostKeys are pre-generated host keys to present to clients. If
	// empty, HostKeyPath (if set) or a freshly generated in-memory
	// Ed25519 key is used instead.
	HostKeys []ssh.Signer
	// HostKeyPath, if set and HostKeys is empty, loads or creates a
	// persisted Ed25519 host key via hostkey.GetOrCreate.
	HostKeyPath string

	// InactivityTimeout bounds how long the SSH transport tolerates a
	// silent connection. Zero uses the default of one hour.
	InactivityTimeout time.Duration

	// AuthRejectionInitial and AuthRejectionSteady are the configured
	// backoff durations spec.md §4.7 enumerates for a rejecting auth
	// policy. The only accepted auth method is "none" (see Non-goals),
	// so no auth attempt is ever rejected in this version and these
	// durations currently have no observable effect; they are kept on
	// Config so a future auth policy has a place to read them from.
	AuthRejectionInitial time.Duration
	AuthRejectionSteady  time.Duration

	// Accept gates whether a newly connected peer may open a session
	// channel at all. Nil means accept every peer.
	Accept func(peer net.Addr) Decision
}

func (c Config) inactivityTimeout() time.Duration {
	if c.InactivityTimeout > 0 {
		return c.InactivityTimeout
	}
	return time.Hour
}

func (c Config) authRejectionSteady() time.Duration {
	if c.AuthRejectionSteady > 0 {
		return c.AuthRejectionSteady
	}
	return 3 * time.Second
}

// Decision is the re-exported result of a Gate/Accept check: Allow or Deny
// a new session.
type Decision = sshadapter.Decision

// Allow and Deny are the two Decision values Config.Accept may return.
const (
	Allow = sshadapter.Allow
	Deny  = sshadapter.Deny
)
