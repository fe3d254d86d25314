// Package transport provides the newline-framed TCP link to an amplifier.
//
// The amplifier listens on a plain TCP port (30001 by default). Both
// directions carry ASCII lines terminated by "\n":
//
//	┌────────────────────────────────┐
//	│   Name<op>[value] commands     │
//	├────────────────────────────────┤
//	│     Line framing ("\n")        │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// There is no handshake, authentication or keep-alive message; liveness is
// left to TCP keep-alive probes configured on the dialer.
//
// Writes are serialized so every command reaches the socket as one
// contiguous line. Disconnecting uses a half-close (CloseWrite) so replies
// already in flight can still be read before the peer closes.
package transport
