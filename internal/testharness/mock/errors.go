package mock

import "errors"

// Mock package errors.
var (
	// ErrAmplifierClosed is returned when operating on a closed amplifier.
	ErrAmplifierClosed = errors.New("amplifier closed")

	// ErrNotConnected is returned when no client is connected.
	ErrNotConnected = errors.New("no client connected")
)
