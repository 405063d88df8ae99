package tuissh

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_InactivityTimeoutDefaultsToOneHour(t *testing.T) {
	var cfg Config
	assert.Equal(t, time.Hour, cfg.inactivityTimeout())
}

func TestConfig_InactivityTimeoutHonorsOverride(t *testing.T) {
	cfg := Config{InactivityTimeout: 5 * time.Minute}
	assert.Equal(t, 5*time.Minute, cfg.inactivityTimeout())
}

func TestConfig_AuthRejectionSteadyDefaultsToThreeSeconds(t *testing.T) {
	var cfg Config
	assert.Equal(t, 3*time.Second, cfg.authRejectionSteady())
}

type noopHandler struct {
	DefaultInputHandler[struct{}]
}

func (noopHandler) OnResize(*Context[struct{}], uint16, uint16) Result { return Continue() }
func (noopHandler) OnMessage(*Context[struct{}], struct{}) Result     { return Continue() }
func (noopHandler) OnAnimation(*Context[struct{}]) Result             { return Continue() }
func (noopHandler) Draw(*Frame)                                       {}
func (noopHandler) TicksPerSecond() (uint8, bool)                     { return 0, false }

func TestNew_GeneratesInMemoryHostKeyWhenNoneConfigured(t *testing.T) {
	srv, err := New[struct{}](Config{ListenAddr: ":0"}, func(net.Addr) Handler[struct{}] {
		return noopHandler{}
	})
	require.NoError(t, err)
	assert.NotNil(t, srv.sshConfig)
}

func TestSimpleHandlerFactory_BuildsAFreshHandlerPerCall(t *testing.T) {
	factory := SimpleHandlerFactory[struct{}](func() *counterStub { return &counterStub{} })
	h1 := factory(nil)
	h2 := factory(nil)
	assert.NotSame(t, h1, h2, "each call should construct a distinct handler instance")
}

type counterStub struct {
	noopHandler
}

func TestIdleConn_ReadResetsDeadline(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	ic := newIdleConn(server, 50*time.Millisecond)
	go func() {
		_, _ = client.Write([]byte("x"))
	}()

	buf := make([]byte, 1)
	n, err := ic.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIdleConn_ZeroTimeoutReturnsOriginalConn(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	ic := newIdleConn(server, 0)
	assert.Same(t, server, ic)
}
