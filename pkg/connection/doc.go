// Package connection manages the lifecycle of an amplifier connection.
//
// A Manager dials the amplifier, sends the root query so the device
// reports its full state, and then reads state lines until the stream
// ends. Decoded values go into a state.Store; changes are coalesced by a
// state.Debouncer before the observer sees them.
//
// # State Machine
//
//	DISCONNECTED ──Run──> CONNECTING ──dial ok──> CONNECTED
//	                          ^                       │
//	                          │ delay        failure  │  end of stream
//	                          │                       v  or Disconnect
//	                     RECONNECTING <────────── (teardown) ──> STOPPED
//
// # Failures
//
// A refused dial, a read error or a line that does not decode ends the
// current session. The pending notification is cancelled, the store is
// cleared and the observer receives an empty snapshot right away. After
// the reconnect delay (flat, 10 seconds by default) the manager dials
// again, indefinitely.
//
// # Stopping
//
// A clean end of stream from the amplifier is final. Disconnect
// half-closes the socket so the amplifier ends the stream itself; when the
// socket cannot half-close, the session is cancelled instead. Either way
// the manager ends in STOPPED.
package connection
