// Command asteroidsdemo serves a terminal UI that spawns falling asteroids
// and animates them at a fixed tick rate, demonstrating a handler that
// mutates non-trivial state every tick instead of just echoing input
// (mirrors original_source/examples/asteroids, see SPEC_FULL.md §10).
package main

import (
	"context"
	"flag"
	"math/rand"
	"net"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"tuissh"
)

const tickRate uint8 = 20

var colors = []tuissh.Color{tuissh.Color(2), tuissh.Color(1), tuissh.Color(5), tuissh.Color(6)}

type asteroid struct {
	x, y       int
	velX, velY int
	color      tuissh.Color
}

type trail struct {
	x, y int
	age  int
}

type asteroidsHandler struct {
	tuissh.DefaultInputHandler[struct{}]
	width, height int
	asteroids     []asteroid
	trails        []trail
	spawnIn       int
	rng           *rand.Rand
}

func newAsteroidsHandler() *asteroidsHandler {
	return &asteroidsHandler{rng: rand.New(rand.NewSource(1))}
}

func (h *asteroidsHandler) OnInput(_ *tuissh.Context[struct{}], ev tuissh.Event) tuissh.Result {
	if ev.Key == tuissh.KeyCtrlD {
		return tuissh.Terminate(tuissh.DefaultFarewell)
	}
	return tuissh.Continue()
}

func (h *asteroidsHandler) OnResize(_ *tuissh.Context[struct{}], width, height uint16) tuissh.Result {
	h.width, h.height = int(width), int(height)
	return tuissh.Render()
}

func (h *asteroidsHandler) OnMessage(*tuissh.Context[struct{}], struct{}) tuissh.Result {
	return tuissh.Continue()
}

// OnAnimation advances the simulation one tick: ages trails, spawns a new
// asteroid every few ticks, and moves or retires every live asteroid.
func (h *asteroidsHandler) OnAnimation(ctx *tuissh.Context[struct{}]) tuissh.Result {
	if h.width == 0 || h.height == 0 {
		area := ctx.CurrentSize()
		h.width, h.height = int(area.Width), int(area.Height)
	}
	if h.width == 0 || h.height == 0 {
		return tuissh.Continue()
	}

	keptTrails := h.trails[:0]
	for _, t := range h.trails {
		t.age++
		if t.age < 5 {
			keptTrails = append(keptTrails, t)
		}
	}
	h.trails = keptTrails

	if h.spawnIn--; h.spawnIn <= 0 {
		h.asteroids = append(h.asteroids, asteroid{
			x:     h.rng.Intn(h.width),
			y:     0,
			velX:  h.rng.Intn(3) - 1,
			velY:  1,
			color: colors[h.rng.Intn(len(colors))],
		})
		h.spawnIn = 3
	}

	kept := h.asteroids[:0]
	for _, a := range h.asteroids {
		nx, ny := a.x+a.velX, a.y+a.velY
		if nx < 0 || nx >= h.width || ny < 0 || ny >= h.height {
			h.trails = append(h.trails, trail{x: a.x, y: a.y})
			continue
		}
		a.x, a.y = nx, ny
		kept = append(kept, a)
	}
	h.asteroids = kept

	return tuissh.Render()
}

func (h *asteroidsHandler) TicksPerSecond() (uint8, bool) { return tickRate, true }

func (h *asteroidsHandler) Draw(f *tuissh.Frame) {
	f.Clear()
	for _, t := range h.trails {
		f.SetCell(t.x, t.y, '.', tuissh.NewStyle().Dim(true))
	}
	for _, a := range h.asteroids {
		f.SetCell(a.x, a.y, '*', tuissh.NewStyle().Foreground(a.color).Bold(true))
	}
	f.SetString(0, 0, "asteroidsdemo: Ctrl+D to quit", tuissh.NewStyle())
}

func main() {
	addr := flag.String("listen", ":2225", "address to listen on")
	hostKeyPath := flag.String("host-key", "", "path to a persisted Ed25519 host key (generated on first run)")
	flag.Parse()

	cfg := tuissh.Config{
		ListenAddr:  *addr,
		HostKeyPath: *hostKeyPath,
	}

	srv, err := tuissh.New[struct{}](cfg, func(peer net.Addr) tuissh.Handler[struct{}] {
		return newAsteroidsHandler()
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to build server")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logrus.WithField("addr", *addr).Info("asteroidsdemo listening")
	if err := srv.Run(ctx); err != nil {
		logrus.WithError(err).Error("server exited")
	}
}
