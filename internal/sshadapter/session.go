// Package sshadapter implements the SSH Session Adapter of spec.md §4.6:
// the raw golang.org/x/crypto/ssh server callbacks (auth, channel open, pty
// request, window change, data), bridging them into Session Engine inputs.
package sshadapter

import (
	"context"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"tuissh/internal/engine"
	"tuissh/internal/frame"
	"tuissh/internal/input"
	"tuissh/internal/sink"
)

// Factory constructs a fresh Handler for a newly accepted connection,
// mirroring ClientHandler::create(peer_addr) in spec.md §4.7.
type Factory[M any] func(peer net.Addr) engine.Handler[M]

// Decision is the result of a Gate: Allow or Deny a new session channel.
type Decision bool

// Allow and Deny are the two Decision values a Gate may return.
const (
	Allow Decision = true
	Deny  Decision = false
)

// Gate decides whether to accept a new session channel at all
// (terminal_request() in spec.md §4.6). The default is accept-all.
type Gate func(peer net.Addr) Decision

// channelState is the sum type of spec.md §3: opened (no PTY yet) or
// running (engine attached).
type channelState interface{ channelState() }

type openedState struct{}

func (openedState) channelState() {}

type runningState[M any] struct {
	eng    *engine.Engine[M]
	dec    *input.Decoder
	cancel context.CancelFunc
}

func (*runningState[M]) channelState() {}

// Session owns one accepted SSH connection: its channel map and the
// application's per-connection Handler factory.
type Session[M any] struct {
	log     *logrus.Entry
	peer    net.Addr
	factory Factory[M]
	gate    Gate
	title   string

	mu       sync.Mutex
	channels map[int]channelState
	nextID   int
}

// NewSession constructs a Session for one accepted connection. title, if
// non-empty, is set on every channel's terminal once it starts running
// (spec.md §4.2's set_title operation).
func NewSession[M any](peer net.Addr, factory Factory[M], gate Gate, title string, log *logrus.Entry) *Session[M] {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Session[M]{
		log:      log.WithField("peer", peer),
		peer:     peer,
		factory:  factory,
		gate:     gate,
		title:    title,
		channels: make(map[int]channelState),
	}
}

// Serve drives sshConn's channel stream until it closes, spawning one
// Session Engine per accepted PTY channel. It blocks until the connection
// is done; callers typically run it in its own goroutine per accepted
// net.Conn.
func (s *Session[M]) Serve(ctx context.Context, sshConn *ssh.ServerConn, chans <-chan ssh.NewChannel, globalReqs <-chan *ssh.Request) {
	go ssh.DiscardRequests(globalReqs)

	var wg sync.WaitGroup
	for nc := range chans {
		id := s.allocID()
		wg.Add(1)
		go func(id int, nc ssh.NewChannel) {
			defer wg.Done()
			s.handleChannel(ctx, id, nc)
		}(id, nc)
	}
	wg.Wait()
	s.abortAll()
	_ = sshConn.Close()
}

func (s *Session[M]) allocID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

func (s *Session[M]) handleChannel(parent context.Context, id int, nc ssh.NewChannel) {
	if nc.ChannelType() != "session" {
		_ = nc.Reject(ssh.UnknownChannelType, "only session channels are supported")
		return
	}
	if s.gate != nil && s.gate(s.peer) != Allow {
		_ = nc.Reject(ssh.Prohibited, "session rejected")
		return
	}
	ch, reqs, err := nc.Accept()
	if err != nil {
		s.log.WithError(err).Warn("failed to accept channel")
		return
	}

	s.mu.Lock()
	s.channels[id] = openedState{}
	s.mu.Unlock()

	go s.readData(id, ch)

	for req := range reqs {
		s.handleRequest(parent, id, ch, req)
	}

	s.teardownChannel(id)
}

func (s *Session[M]) handleRequest(parent context.Context, id int, ch ssh.Channel, req *ssh.Request) {
	switch req.Type {
	case "pty-req":
		s.onPtyRequest(parent, id, ch, req)
	case "window-change":
		s.onWindowChange(id, req)
	case "shell", "env":
		if req.WantReply {
			_ = req.Reply(true, nil)
		}
	default:
		if req.WantReply {
			_ = req.Reply(false, nil)
		}
	}
}

func (s *Session[M]) onPtyRequest(parent context.Context, id int, ch ssh.Channel, req *ssh.Request) {
	pty, err := parsePtyRequest(req.Payload)
	if err != nil {
		s.log.WithError(err).Warn("malformed pty-req")
		if req.WantReply {
			_ = req.Reply(false, nil)
		}
		return
	}

	s.mu.Lock()
	cur, known := s.channels[id]
	if !known {
		s.mu.Unlock()
		s.log.WithError(engine.ErrPtyRequestBeforeOpen).Warn("pty-req on unknown channel")
		if req.WantReply {
			_ = req.Reply(false, nil)
		}
		return
	}
	switch cur.(type) {
	case openedState:
		// fallthrough below, still holding the lock
	default:
		s.mu.Unlock()
		s.log.WithError(engine.ErrPtyRequestTwice).Warn("pty-req sent twice on one channel")
		if req.WantReply {
			_ = req.Reply(false, nil)
		}
		return
	}

	handler := s.factory(s.peer)
	area := frame.ClampRect(pty.Width, pty.Height)
	sk := sink.New(ch, s.log)
	term := frame.NewTerminal(sk, area)
	eng := engine.New[M](handler, term, area, s.log)
	if s.title != "" {
		eng.SetTitle(s.title)
	}
	chCtx, cancel := context.WithCancel(parent)

	s.channels[id] = &runningState[M]{eng: eng, dec: input.NewDecoder(), cancel: cancel}
	s.mu.Unlock()

	go func() {
		if err := eng.Run(chCtx); err != nil {
			s.log.WithError(err).Warn("engine exited with error")
		}
	}()

	if req.WantReply {
		_ = req.Reply(true, nil)
	}
}

func (s *Session[M]) onWindowChange(id int, req *ssh.Request) {
	wc, err := parseWindowChange(req.Payload)
	if err != nil {
		s.log.WithError(err).Warn("malformed window-change")
		if req.WantReply {
			_ = req.Reply(false, nil)
		}
		return
	}

	s.mu.Lock()
	cur, known := s.channels[id]
	s.mu.Unlock()
	if !known {
		s.log.WithError(engine.ErrUnknownChannel).Warn("window-change on unknown channel")
		if req.WantReply {
			_ = req.Reply(false, nil)
		}
		return
	}
	running, ok := cur.(*runningState[M])
	if !ok {
		if req.WantReply {
			_ = req.Reply(false, nil)
		}
		return
	}
	running.eng.PushResize(clampU16(wc.Width), clampU16(wc.Height))
	if req.WantReply {
		_ = req.Reply(true, nil)
	}
}

func clampU16(v uint32) uint16 {
	const max16 = 1<<16 - 1
	if v > max16 {
		return max16
	}
	return uint16(v)
}

func (s *Session[M]) readData(id int, ch ssh.Channel) {
	buf := make([]byte, 4096)
	for {
		n, err := ch.Read(buf)
		if n > 0 {
			s.dispatchData(id, buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (s *Session[M]) dispatchData(id int, data []byte) {
	s.mu.Lock()
	cur, known := s.channels[id]
	s.mu.Unlock()
	if !known {
		s.log.WithError(engine.ErrUnknownChannel).Warn("data on unknown channel")
		return
	}
	running, ok := cur.(*runningState[M])
	if !ok {
		// PTY not yet requested: nothing to decode into, discard silently.
		return
	}
	for _, ev := range running.dec.Feed(data) {
		if !running.eng.PushInput(ev) {
			// Engine has exited; nothing more to deliver.
			return
		}
	}
}

func (s *Session[M]) teardownChannel(id int) {
	s.mu.Lock()
	cur, known := s.channels[id]
	delete(s.channels, id)
	s.mu.Unlock()
	if !known {
		return
	}
	if running, ok := cur.(*runningState[M]); ok {
		running.eng.Close()
	}
}

// abortAll cancels every still-running engine when the underlying
// connection drops, matching spec.md §4.6's "on session drop: abort all
// live engine tasks for the session."
func (s *Session[M]) abortAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cur := range s.channels {
		if running, ok := cur.(*runningState[M]); ok {
			running.cancel()
		}
		delete(s.channels, id)
	}
}
