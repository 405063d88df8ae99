// Command counterdemo serves a terminal UI that draws a counter
// incremented on every keystroke, demonstrating the library's basic
// input/draw cycle (mirrors original_source/examples/hello, see
// SPEC_FULL.md §10).
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"tuissh"
)

// counterHandler has no asynchronous message type, so it's parameterized
// over struct{}.
type counterHandler struct {
	tuissh.DefaultInputHandler[struct{}]
	count int
}

func (h *counterHandler) OnInput(_ *tuissh.Context[struct{}], ev tuissh.Event) tuissh.Result {
	if ev.Key == tuissh.KeyCtrlD {
		return tuissh.Terminate(tuissh.DefaultFarewell)
	}
	h.count++
	return tuissh.Render()
}

func (h *counterHandler) OnResize(*tuissh.Context[struct{}], uint16, uint16) tuissh.Result {
	return tuissh.Render()
}

func (h *counterHandler) OnMessage(*tuissh.Context[struct{}], struct{}) tuissh.Result {
	return tuissh.Continue()
}

func (h *counterHandler) OnAnimation(*tuissh.Context[struct{}]) tuissh.Result {
	return tuissh.Continue()
}

func (h *counterHandler) TicksPerSecond() (uint8, bool) { return 0, false }

func (h *counterHandler) Draw(f *tuissh.Frame) {
	f.Clear()
	area := f.Area()
	msg := fmt.Sprintf("keys pressed: %d (Ctrl+D to quit)", h.count)
	y := int(area.Height) / 2
	x := (int(area.Width) - len(msg)) / 2
	if x < 0 {
		x = 0
	}
	f.SetString(x, y, msg, tuissh.NewStyle().Bold(true))
}

func main() {
	addr := flag.String("listen", ":2222", "address to listen on")
	hostKeyPath := flag.String("host-key", "", "path to a persisted Ed25519 host key (generated on first run)")
	flag.Parse()

	cfg := tuissh.Config{
		ListenAddr:  *addr,
		HostKeyPath: *hostKeyPath,
	}

	srv, err := tuissh.New[struct{}](cfg, func(peer net.Addr) tuissh.Handler[struct{}] {
		return &counterHandler{}
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to build server")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logrus.WithField("addr", *addr).Info("counterdemo listening")
	if err := srv.Run(ctx); err != nil {
		logrus.WithError(err).Error("server exited")
	}
}
