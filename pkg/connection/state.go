package connection

// State represents the connection state.
type State uint8

const (
	// StateDisconnected indicates no connection has been attempted yet.
	StateDisconnected State = iota

	// StateConnecting indicates a dial is in progress.
	StateConnecting

	// StateConnected indicates the read loop is running.
	StateConnected

	// StateReconnecting indicates the manager is waiting out the
	// reconnect delay after a failure.
	StateReconnecting

	// StateStopped is terminal: the peer ended the stream or the caller
	// disconnected.
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}
