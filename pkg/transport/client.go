package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadtcp/nadtcp-go/pkg/log"
)

// Transport errors.
var (
	// ErrConnectionClosed indicates the connection was closed locally.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrHalfCloseUnsupported indicates the socket cannot shut down only
	// its sending direction.
	ErrHalfCloseUnsupported = errors.New("half-close not supported")
)

// Default dialer settings.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultKeepAlive      = 30 * time.Second
)

// DialerConfig configures a TCPDialer.
type DialerConfig struct {
	// ConnectTimeout bounds the TCP handshake (default: 10s).
	ConnectTimeout time.Duration

	// WriteTimeout bounds each line write. Zero means no deadline.
	WriteTimeout time.Duration

	// KeepAlive is the TCP keep-alive period (default: 30s).
	// Negative disables keep-alive probes.
	KeepAlive time.Duration

	// MaxLineSize is the maximum incoming line size (default: 4KB).
	MaxLineSize int

	// ProtocolLogger receives a LineEvent for every line in either
	// direction. Optional.
	ProtocolLogger log.Logger
}

// TCPDialer opens plain TCP connections to an amplifier.
type TCPDialer struct {
	config DialerConfig
}

// NewTCPDialer creates a dialer, applying defaults for zero values.
func NewTCPDialer(config DialerConfig) *TCPDialer {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.KeepAlive == 0 {
		config.KeepAlive = DefaultKeepAlive
	}
	if config.MaxLineSize <= 0 {
		config.MaxLineSize = DefaultMaxLineSize
	}
	return &TCPDialer{config: config}
}

// Dial connects to address (host:port).
func (d *TCPDialer) Dial(ctx context.Context, address string) (Conn, error) {
	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{KeepAlive: d.config.KeepAlive}
	nc, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	return NewLineConn(nc, d.config), nil
}

// LineConn is a newline-framed connection to an amplifier.
type LineConn struct {
	conn   net.Conn
	id     string
	reader *LineReader
	writer *LineWriter

	writeTimeout time.Duration

	closeCh   chan struct{}
	closeOnce sync.Once
	readMu    sync.Mutex
	writeMu   sync.Mutex
}

// NewLineConn wraps an established net.Conn. Each call assigns a fresh
// connection ID used to correlate protocol log events.
func NewLineConn(nc net.Conn, config DialerConfig) *LineConn {
	c := &LineConn{
		conn:         nc,
		id:           uuid.New().String(),
		reader:       NewLineReaderWithMaxSize(nc, config.MaxLineSize),
		writer:       NewLineWriter(nc),
		writeTimeout: config.WriteTimeout,
		closeCh:      make(chan struct{}),
	}

	if config.ProtocolLogger != nil {
		remote := nc.RemoteAddr().String()
		c.reader.SetLogger(config.ProtocolLogger, c.id, remote)
		c.writer.SetLogger(config.ProtocolLogger, c.id, remote)
	}
	return c
}

// ID returns the connection identifier.
func (c *LineConn) ID() string {
	return c.id
}

// RemoteAddr returns the remote network address.
func (c *LineConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// LocalAddr returns the local network address.
func (c *LineConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// ReadLine blocks until the next line arrives.
func (c *LineConn) ReadLine() (string, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	line, err := c.reader.ReadLine()
	if err != nil && c.isClosed() {
		return "", ErrConnectionClosed
	}
	return line, err
}

// WriteLine sends one command line.
// Thread-safe: can be called from multiple goroutines.
func (c *LineConn) WriteLine(line string) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}

	// The deadline belongs to this write only.
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		defer func() { _ = c.conn.SetWriteDeadline(time.Time{}) }()
	}

	return c.writer.WriteLine(line)
}

// CloseWrite shuts down the sending direction. The peer sees end of
// stream while lines already in flight toward us can still be read.
func (c *LineConn) CloseWrite() error {
	hc, ok := c.conn.(interface{ CloseWrite() error })
	if !ok {
		return ErrHalfCloseUnsupported
	}
	return hc.CloseWrite()
}

// Close closes the connection. Safe to call more than once.
func (c *LineConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *LineConn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}
