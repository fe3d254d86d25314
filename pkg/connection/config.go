package connection

import (
	"errors"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/nadtcp/nadtcp-go/pkg/log"
	"github.com/nadtcp/nadtcp-go/pkg/metrics"
	"github.com/nadtcp/nadtcp-go/pkg/schema"
	"github.com/nadtcp/nadtcp-go/pkg/state"
	"github.com/nadtcp/nadtcp-go/pkg/transport"
)

// DefaultPort is the amplifier's control port.
const DefaultPort = 30001

// ErrMissingHost indicates Config.Host is empty.
var ErrMissingHost = errors.New("host is required")

// Observer receives the full snapshot after a burst of changes, and an
// empty snapshot when the connection is lost. It runs on a timer
// goroutine and must not call Disconnect synchronously.
type Observer func(state.Snapshot)

// Config configures a Manager.
type Config struct {
	// Host is the amplifier's hostname or IP address.
	Host string

	// Port is the control port (default: 30001).
	Port int

	// ReconnectDelay is the flat pause before each reconnect attempt
	// (default: 10s).
	ReconnectDelay time.Duration

	// DebounceWindow is how long changes are collected before the
	// observer is called (default: 100ms).
	DebounceWindow time.Duration

	// DialTimeout bounds each connection attempt (default: 10s).
	DialTimeout time.Duration

	// WriteTimeout bounds each command write. Zero means no deadline.
	WriteTimeout time.Duration

	// Observer is the initial state-change observer. Optional.
	Observer Observer

	// Registry is the parameter catalog (default: schema.C338()).
	Registry *schema.Registry

	// Dialer opens connections. Defaults to a transport.TCPDialer built
	// from the timeouts above.
	Dialer transport.Dialer

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger captures lines, decoded updates, state changes and
	// notifications. Optional.
	ProtocolLogger log.Logger

	// Metrics records connection metrics. Optional.
	Metrics *metrics.Collector
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) withDefaults() (Config, error) {
	if c.Host == "" {
		return c, ErrMissingHost
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = state.DefaultDebounceWindow
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = transport.DefaultConnectTimeout
	}
	if c.Registry == nil {
		c.Registry = schema.C338()
	}
	if c.Dialer == nil {
		c.Dialer = transport.NewTCPDialer(transport.DialerConfig{
			ConnectTimeout: c.DialTimeout,
			WriteTimeout:   c.WriteTimeout,
			ProtocolLogger: c.ProtocolLogger,
		})
	}
	return c, nil
}
