package transport

import (
	"context"
	"net"
)

// Conn is a bidirectional line stream to one amplifier.
// Implemented by LineConn.
type Conn interface {
	// ID returns the connection identifier.
	ID() string

	// RemoteAddr returns the remote network address.
	RemoteAddr() net.Addr

	// ReadLine returns the next line without its terminator.
	ReadLine() (string, error)

	// WriteLine sends one line, appending the terminator.
	WriteLine(line string) error

	// CloseWrite half-closes the connection.
	CloseWrite() error

	// Close closes the connection.
	Close() error
}

// Dialer opens connections.
// Implemented by TCPDialer.
type Dialer interface {
	// Dial connects to address (host:port).
	Dial(ctx context.Context, address string) (Conn, error)
}

// LineReadWriter provides newline-framed I/O.
type LineReadWriter interface {
	// ReadLine reads one line.
	ReadLine() (string, error)

	// WriteLine writes one line.
	WriteLine(line string) error
}

// Compile-time interface satisfaction checks.
var (
	_ Conn           = (*LineConn)(nil)
	_ Dialer         = (*TCPDialer)(nil)
	_ LineReadWriter = (*LineConn)(nil)
)
