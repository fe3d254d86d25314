// Package wire encodes commands and decodes state lines of the NAD
// control protocol.
//
// The protocol is plain ASCII over TCP, one message per line. A command
// is a parameter name followed by an operator:
//
//	Main.Power?        query
//	Main.Volume+       step up
//	Main.Volume-       step down
//	Main.Volume=-30    assign
//
// The amplifier answers with state lines of the form name=value, both
// in reply to commands and spontaneously when something changes on the
// device. The root query "Main?" makes it report every parameter.
//
// Values on the wire are untyped text. Decoder uses a schema.Registry to
// turn them into int, float64 or string.
package wire
