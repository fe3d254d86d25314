package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{
		Timestamp:    time.Now(),
		ConnectionID: "test-conn",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
	}
	logger.Log(event)

	event.Line = &LineEvent{Text: "Main.Power=On", Size: 13}
	logger.Log(event)

	event.Line = nil
	event.StateChange = &StateChangeEvent{NewState: "CONNECTED"}
	logger.Log(event)

	event.StateChange = nil
	event.Error = &ErrorEventData{Message: "test error"}
	logger.Log(event)
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	m := NewMultiLogger()
	if OrNoop(m) != Logger(m) {
		t.Error("OrNoop(l) should return l")
	}
}

func TestLoggerFunc(t *testing.T) {
	var got []string
	l := LoggerFunc(func(e Event) {
		if e.Line != nil {
			got = append(got, e.Line.Text)
		}
	})

	m := NewMultiLogger(l, nil, NoopLogger{})
	m.Log(Event{Line: &LineEvent{Text: "Main?", Size: 5}})
	m.Log(Event{StateChange: &StateChangeEvent{NewState: "CONNECTED"}})
	m.Log(Event{Line: &LineEvent{Text: "Main.Mute=On", Size: 12}})

	if len(got) != 2 || got[0] != "Main?" || got[1] != "Main.Mute=On" {
		t.Errorf("got %v", got)
	}
}
