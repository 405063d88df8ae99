// Command panicdemo deliberately panics from Draw after a few keystrokes,
// demonstrating that a handler panic is isolated to a fallback screen
// instead of taking down the session or the server (spec.md §4.5/§7,
// SPEC_FULL.md §10).
package main

import (
	"context"
	"flag"
	"net"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"tuissh"
)

type panicHandler struct {
	tuissh.DefaultInputHandler[struct{}]
	count int
}

func (h *panicHandler) OnInput(_ *tuissh.Context[struct{}], ev tuissh.Event) tuissh.Result {
	if ev.Key == tuissh.KeyCtrlD {
		return tuissh.Terminate(tuissh.DefaultFarewell)
	}
	h.count++
	return tuissh.Render()
}

func (h *panicHandler) OnResize(*tuissh.Context[struct{}], uint16, uint16) tuissh.Result {
	return tuissh.Render()
}

func (h *panicHandler) OnMessage(*tuissh.Context[struct{}], struct{}) tuissh.Result {
	return tuissh.Continue()
}

func (h *panicHandler) OnAnimation(*tuissh.Context[struct{}]) tuissh.Result {
	return tuissh.Continue()
}

func (h *panicHandler) TicksPerSecond() (uint8, bool) { return 0, false }

func (h *panicHandler) Draw(f *tuissh.Frame) {
	if h.count >= 3 {
		panic("panicdemo: simulated draw failure")
	}
	f.Clear()
	f.SetString(0, 0, "press any key 3 times to crash this frame", tuissh.NewStyle())
}

func main() {
	addr := flag.String("listen", ":2224", "address to listen on")
	hostKeyPath := flag.String("host-key", "", "path to a persisted Ed25519 host key (generated on first run)")
	flag.Parse()

	cfg := tuissh.Config{
		ListenAddr:  *addr,
		HostKeyPath: *hostKeyPath,
	}

	srv, err := tuissh.New[struct{}](cfg, func(peer net.Addr) tuissh.Handler[struct{}] {
		return &panicHandler{}
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to build server")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logrus.WithField("addr", *addr).Info("panicdemo listening")
	if err := srv.Run(ctx); err != nil {
		logrus.WithError(err).Error("server exited")
	}
}
