package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/nao1215/tornago"
)

// DefaultTorStartupTimeout bounds the bootstrap of an embedded Tor daemon.
const DefaultTorStartupTimeout = 3 * time.Minute

// ErrTorNotRunning is returned when the embedded daemon has not been started.
var ErrTorNotRunning = errors.New("embedded Tor daemon is not running")

// EmbeddedTor runs a private Tor daemon whose SOCKS port can be used as the
// proxy address of NewClient. Bootstrapping takes between a few seconds and
// a few minutes depending on the network.
type EmbeddedTor struct {
	process        *tornago.TorProcess
	socksAddr      string
	startupTimeout time.Duration
}

// TorOption configures an EmbeddedTor.
type TorOption func(*EmbeddedTor)

// WithTorStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithTorStartupTimeout(timeout time.Duration) TorOption {
	return func(e *EmbeddedTor) {
		if timeout > 0 {
			e.startupTimeout = timeout
		}
	}
}

// NewEmbeddedTor creates an embedded Tor manager. Call Start to launch it.
func NewEmbeddedTor(opts ...TorOption) *EmbeddedTor {
	e := &EmbeddedTor{startupTimeout: DefaultTorStartupTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon and blocks until it has bootstrapped.
// The SOCKS and control ports are picked by the OS.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr("127.0.0.1:0"),
		tornago.WithTorControlAddr("127.0.0.1:0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	if err := ctx.Err(); err != nil {
		_ = process.Stop() //nolint:errcheck // best effort
		return err
	}

	e.process = process
	e.socksAddr = loopbackAddr(process.SocksAddr())
	return nil
}

// Stop shuts the daemon down. It is a no-op when the daemon is not running.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	return err
}

// IsRunning reports whether the daemon has been started and not stopped.
func (e *EmbeddedTor) IsRunning() bool {
	return e.process != nil
}

// ProxyAddress returns the daemon's SOCKS5 address in "host:port" form.
func (e *EmbeddedTor) ProxyAddress() (string, error) {
	if !e.IsRunning() {
		return "", ErrTorNotRunning
	}
	return e.socksAddr, nil
}

// loopbackAddr replaces an empty or wildcard host with the IPv4 loopback.
func loopbackAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
