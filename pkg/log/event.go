package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies one socket lifetime (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the amplifier address (host:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Line         *LineEvent         `cbor:"7,keyasint,omitempty"`  // Transport layer
	Update       *UpdateEvent       `cbor:"8,keyasint,omitempty"`  // Wire layer (decoded)
	StateChange  *StateChangeEvent  `cbor:"9,keyasint,omitempty"`  // Connection state
	Notification *NotificationEvent `cbor:"10,keyasint,omitempty"` // Observer delivery
	Error        *ErrorEventData    `cbor:"11,keyasint,omitempty"` // Errors at any layer
}

// HasDirection reports whether the event carries protocol traffic. State,
// notification and error events leave Direction at its zero value.
func (e Event) HasDirection() bool {
	return e.Line != nil || e.Update != nil
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the amplifier.
	DirectionIn Direction = 0
	// DirectionOut indicates data sent to the amplifier.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the raw line layer.
	LayerTransport Layer = 0
	// LayerWire is the decoded parameter layer.
	LayerWire Layer = 1
	// LayerService is the connection manager and observer layer.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol line or decoded update.
	CategoryMessage Category = 0
	// CategoryState indicates a connection state change.
	CategoryState Category = 1
	// CategoryNotification indicates a snapshot delivered to the observer.
	CategoryNotification Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryNotification:
		return "NOTIFICATION"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LineEvent captures one raw protocol line without its terminator.
type LineEvent struct {
	// Text is the line (may be truncated for very long lines).
	Text string `cbor:"1,keyasint"`

	// Size is the original length in bytes.
	Size int `cbor:"2,keyasint"`

	// Truncated indicates if Text was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// UpdateEvent captures a decoded state line.
type UpdateEvent struct {
	// Name is the parameter name.
	Name string `cbor:"1,keyasint"`

	// Value is the typed value.
	Value any `cbor:"2,keyasint,omitempty"`

	// Changed reports whether the value differed from the stored one.
	Changed bool `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures connection lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// NotificationEvent captures a snapshot handed to the observer.
type NotificationEvent struct {
	// Parameters is the number of entries in the snapshot.
	Parameters int `cbor:"1,keyasint"`

	// Cleared marks the empty snapshot sent after connection loss.
	Cleared bool `cbor:"2,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
