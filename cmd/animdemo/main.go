// Command animdemo serves a terminal UI driving a continuous animation at
// a fixed tick rate, demonstrating OnAnimation/TicksPerSecond (mirrors
// original_source/examples/intro, see SPEC_FULL.md §10).
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

const tickRate uint8 = 10

// tickMsg is posted by nothing in this demo; animdemo drives its frame
// purely off OnAnimation, so its message type is never populated, but it
// still needs a concrete type to instantiate the generic Handler with.
type tickMsg struct{}

type animHandler struct {
	tuissh.DefaultInputHandler[tickMsg]
	col int
}

func (h *animHandler) OnInput(_ *tuissh.Context[tickMsg], ev tuissh.Event) tuissh.Result {
	if ev.Key == tuissh.KeyCtrlD {
		return tuissh.Terminate(tuissh.DefaultFarewell)
	}
	return tuissh.Continue()
}

func (h *animHandler) OnResize(*tuissh.Context[tickMsg], uint16, uint16) tuissh.Result {
	return tuissh.Render()
}

func (h *animHandler) OnMessage(*tuissh.Context[tickMsg], tickMsg) tuissh.Result {
	return tuissh.Continue()
}

func (h *animHandler) OnAnimation(*tuissh.Context[tickMsg]) tuissh.Result {
	h.col++
	return tuissh.Render()
}

func (h *animHandler) TicksPerSecond() (uint8, bool) { return tickRate, true }

func (h *animHandler) Draw(f *tuissh.Frame) {
	f.Clear()
	area := f.Area()
	width := int(area.Width)
	if width == 0 {
		return
	}
	x := h.col % width
	y := int(area.Height) / 2
	f.SetCell(x, y, '*', tuissh.NewStyle().Foreground(tuissh.Color(14)))
	f.SetString(0, 0, fmt.Sprintf("animdemo: %d ticks/sec, Ctrl+D to quit", tickRate), tuissh.NewStyle())
}

func main() {
	addr := flag.String("listen", ":2223", "address to listen on")
	hostKeyPath := flag.String("host-key", "", "path to a persisted Ed25519 host key (generated on first run)")
	flag.Parse()

	cfg := tuissh.Config{
		ListenAddr:  *addr,
		HostKeyPath: *hostKeyPath,
	}

	srv, err := tuissh.New[tickMsg](cfg, func(peer net.Addr) tuissh.Handler[tickMsg] {
		return &animHandler{}
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to build server")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logrus.WithField("addr", *addr).Info("animdemo listening")
	if err := srv.Run(ctx); err != nil {
		logrus.WithError(err).Error("server exited")
	}
}
