package tuissh

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"tuissh/internal/engine"
	"tuissh/internal/frame"
	"tuissh/internal/hostkey"
	"tuissh/internal/sshadapter"
)

// Re-exported aliases so applications only need to import the root
// package: Handler[M] and friends are defined in internal/engine (spec.md
// §3/§4.4/§4.5) but are part of this library's public surface.
type (
	Handler[M any] = engine.Handler[M]
	Result         = engine.Result
	Context[M any] = engine.Context[M]
	Rect           = frame.Rect
	Frame          = frame.Frame
	Style          = frame.Style
	Color          = frame.Color
)

// NewStyle returns the default style: default colors, no attributes.
func NewStyle() Style { return frame.NewStyle() }

// ColorDefault selects the terminal's default foreground/background.
const ColorDefault = frame.ColorDefault

// Continue, Render, and Terminate construct the three CallbackResult
// variants (spec.md §3).
func Continue() Result             { return engine.Continue() }
func Render() Result                { return engine.Render() }
func Terminate(farewell string) Result { return engine.Terminate(farewell) }

// DefaultInputHandler is an embeddable helper giving a Handler[M] the
// Ctrl+D quit chord described in spec.md §6 for free.
type DefaultInputHandler[M any] = engine.DefaultInputHandler[M]

// DefaultFarewell is the farewell message spec.md §6 specifies for the
// builtin Ctrl+D default.
const DefaultFarewell = engine.DefaultFarewell

// Factory constructs a fresh Handler[M] for each newly accepted
// connection (spec.md §4.7's ClientHandler::create(peer_addr)).
type Factory[M any] func(peer net.Addr) Handler[M]

// SimpleHandlerFactory adapts a handler type with a zero-value
// constructor into a Factory[M], sparing callers a one-line closure for
// the common case (SPEC_FULL.md §10, grounded on the original's
// SimpleTerminalHandler).
func SimpleHandlerFactory[M any, H Handler[M]](newHandler func() H) Factory[M] {
	return func(net.Addr) Handler[M] {
		return newHandler()
	}
}

// Server is the Server Builder of spec.md §4.7: it listens, loads or
// generates host key material, and accepts connections, constructing one
// SSH Session Adapter per connection.
type Server[M any] struct {
	cfg     Config
	factory Factory[M]
	log     *logrus.Entry

	sshConfig *ssh.ServerConfig
}

// New builds a Server for the given configuration and handler factory.
// Host key material is resolved eagerly: a failure here is fatal to
// startup, matching spec.md §7's KeyMaterialError policy.
func New[M any](cfg Config, factory Factory[M]) (*Server[M], error) {
	log := logrus.WithField("component", "tuissh")

	sshConfig := &ssh.ServerConfig{
		NoClientAuth: true, // the only accepted auth method is "none" (spec.md §6)
	}

	keys := cfg.HostKeys
	if len(keys) == 0 {
		var key ssh.Signer
		var err error
		if cfg.HostKeyPath != "" {
			key, err = hostkey.GetOrCreate(cfg.HostKeyPath)
		} else {
			key, err = hostkey.Generate()
		}
		if err != nil {
			return nil, fmt.Errorf("tuissh: key material: %w", err)
		}
		keys = []ssh.Signer{key}
	}
	for _, k := range keys {
		sshConfig.AddHostKey(k)
	}

	return &Server[M]{
		cfg:       cfg,
		factory:   factory,
		log:       log,
		sshConfig: sshConfig,
	}, nil
}

// Run binds cfg.ListenAddr and serves until ctx is cancelled or a fatal
// listener error occurs. Each accepted connection gets its own
// sshadapter.Session and a context derived from ctx, so cancelling ctx
// aborts every live engine across every session.
func (s *Server[M]) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("tuissh: listen %s: %w", s.cfg.ListenAddr, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	var gate sshadapter.Gate
	if s.cfg.Accept != nil {
		gate = func(peer net.Addr) sshadapter.Decision {
			return s.cfg.Accept(peer)
		}
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.log.WithError(err).Warn("accept failed")
				continue
			}
		}
		go s.serveConn(ctx, newIdleConn(conn, s.cfg.inactivityTimeout()), gate)
	}
}

func (s *Server[M]) serveConn(ctx context.Context, conn net.Conn, gate sshadapter.Gate) {
	sshConn, chans, reqs, err := ssh.NewServerConn(conn, s.sshConfig)
	if err != nil {
		s.log.WithError(err).Debug("ssh handshake failed")
		_ = conn.Close()
		return
	}

	peer := sshConn.RemoteAddr()
	session := sshadapter.NewSession[M](peer, sshadapter.Factory[M](s.factory), gate, s.cfg.Title, s.log)
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	session.Serve(connCtx, sshConn, chans, reqs)
}

// idleConn resets a deadline on every Read/Write, implementing the
// inactivity timeout spec.md §4.7 enumerates.
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func newIdleConn(conn net.Conn, timeout time.Duration) net.Conn {
	if timeout <= 0 {
		return conn
	}
	ic := &idleConn{Conn: conn, timeout: timeout}
	_ = conn.SetDeadline(time.Now().Add(timeout))
	return ic
}

func (c *idleConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	_ = c.Conn.SetDeadline(time.Now().Add(c.timeout))
	return n, err
}

func (c *idleConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	_ = c.Conn.SetDeadline(time.Now().Add(c.timeout))
	return n, err
}
