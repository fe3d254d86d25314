// Package schema describes the parameters an amplifier exposes over its
// text control protocol and validates commands against them.
//
// Every parameter is described by an immutable Descriptor:
//
//	Main.Volume   operators ? + - =   domain [-80, 0)   type float
//	Main.Source   operators ? + - =   domain {Stream, Wireless, TV, ...}
//	Main.Version  operators ?                            type float
//
// Descriptors are collected into a Registry, which is built once at startup
// and shared read-only. There is no package-level table: callers inject the
// Registry they want (usually C338) into the connection layer, which makes
// independently configured clients and tests possible.
//
// # Operators
//
// The protocol knows four operators:
//
//	?  query the current value
//	+  step the value up
//	-  step the value down
//	=  assign a value
//
// Only assignment carries a value. Validate enforces this and checks the
// assigned value against the descriptor's domain after coercing it to the
// descriptor's type.
package schema
