// Package log provides structured protocol capture for the amplifier client.
//
// This package defines the Logger interface and Event types for recording
// what happens on the control connection: raw lines in both directions,
// decoded parameter updates, connection state transitions, observer
// notifications and errors. It is separate from operational logging (slog);
// protocol capture is a complete machine-readable trace for debugging.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For field debugging: write to a binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/nad/amp.nlog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .nlog extension.
// The nad-log tool views, summarizes and exports them.
package log
