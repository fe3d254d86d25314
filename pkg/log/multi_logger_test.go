package log

import (
	"testing"
	"time"
)

// recordingLogger records events for testing.
type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.events = append(r.events, event)
}

func TestMultiLoggerCallsAll(t *testing.T) {
	rec1 := &recordingLogger{}
	rec2 := &recordingLogger{}

	multi := NewMultiLogger(rec1, nil, rec2)

	multi.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Category:     CategoryMessage,
	})

	for i, rec := range []*recordingLogger{rec1, rec2} {
		if len(rec.events) != 1 {
			t.Errorf("logger %d: got %d events, want 1", i, len(rec.events))
			continue
		}
		if rec.events[0].ConnectionID != "conn-123" {
			t.Errorf("logger %d: ConnectionID = %q", i, rec.events[0].ConnectionID)
		}
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	NewMultiLogger().Log(Event{})
}
