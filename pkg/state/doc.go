// Package state keeps the last known values reported by the amplifier and
// decides when observers hear about them.
//
// Store is a plain map guarded by a mutex: Apply reports whether a value
// changed, Snapshot hands out copies, Clear empties it when the connection
// is lost.
//
// Debouncer coalesces change notifications. A status dump on connect
// produces a dozen lines within a few milliseconds; the observer sees one
// call carrying the final state rather than twelve intermediate ones.
//
//	line  line  line          (window)          flush
//	 |-----|-----|-------------------------------->|
//	 ^ Trigger schedules      absorbed             observer(snapshot)
package state
