// Package discovery finds NAD amplifiers on the local network via
// mDNS/DNS-SD.
//
// Network-streaming NAD amplifiers (C338 and later) embed a Cast receiver
// and advertise _googlecast._tcp. The TXT record "md" carries the model
// name; entries whose model starts with "NAD" are reported as amplifiers.
// The line-protocol port (30001) is not advertised and is assumed.
//
// Services are aggregated by instance name: an amplifier answering on
// several interfaces is reported once with all of its addresses.
package discovery
