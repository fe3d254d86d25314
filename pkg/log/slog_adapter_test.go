package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureSlog(t *testing.T, level slog.Level) (*SlogAdapter, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogAdapter(slog.New(handler)), &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestSlogAdapterLogsLineEvent(t *testing.T) {
	adapter, buf := captureSlog(t, slog.LevelDebug)

	adapter.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionOut,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
		RemoteAddr:   "10.0.0.5:30001",
		Line:         &LineEvent{Text: "Main?", Size: 5},
	})

	entry := decodeEntry(t, buf)
	assert.Equal(t, "protocol", entry["msg"])
	assert.Equal(t, "conn-123", entry["conn_id"])
	assert.Equal(t, "OUT", entry["direction"])
	assert.Equal(t, "TRANSPORT", entry["layer"])
	assert.Equal(t, "10.0.0.5:30001", entry["remote"])
	assert.Equal(t, "Main?", entry["line"])
	assert.Equal(t, float64(5), entry["size"])
}

func TestSlogAdapterLogsUpdateEvent(t *testing.T) {
	adapter, buf := captureSlog(t, slog.LevelDebug)

	adapter.Log(Event{
		Layer:    LayerWire,
		Category: CategoryMessage,
		Update:   &UpdateEvent{Name: "Main.Volume", Value: -20.5, Changed: true},
	})

	entry := decodeEntry(t, buf)
	assert.Equal(t, "Main.Volume", entry["param"])
	assert.Equal(t, "-20.5", entry["value"])
	assert.Equal(t, true, entry["changed"])
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	adapter, buf := captureSlog(t, slog.LevelDebug)

	adapter.Log(Event{
		Layer:    LayerService,
		Category: CategoryState,
		StateChange: &StateChangeEvent{
			OldState: "CONNECTED",
			NewState: "RECONNECTING",
			Reason:   "connection reset by peer",
		},
	})

	entry := decodeEntry(t, buf)
	assert.Equal(t, "CONNECTED", entry["old_state"])
	assert.Equal(t, "RECONNECTING", entry["new_state"])
	assert.Equal(t, "connection reset by peer", entry["reason"])
}

func TestSlogAdapterLogsNotificationAndError(t *testing.T) {
	adapter, buf := captureSlog(t, slog.LevelDebug)

	adapter.Log(Event{
		Category:     CategoryNotification,
		Notification: &NotificationEvent{Parameters: 0, Cleared: true},
	})
	entry := decodeEntry(t, buf)
	assert.Equal(t, true, entry["cleared"])

	buf.Reset()
	adapter.Log(Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Layer: LayerWire, Message: "malformed line", Context: "decode"},
	})
	entry = decodeEntry(t, buf)
	assert.Equal(t, "WIRE", entry["error_layer"])
	assert.Equal(t, "malformed line", entry["error_msg"])
	assert.Equal(t, "decode", entry["error_context"])
}

func TestSlogAdapterRespectsLevel(t *testing.T) {
	adapter, buf := captureSlog(t, slog.LevelInfo)

	adapter.Log(Event{Line: &LineEvent{Text: "Main?"}})
	assert.Zero(t, buf.Len(), "debug events must be filtered at info level")

	adapter.WithLevel(slog.LevelInfo).Log(Event{Line: &LineEvent{Text: "Main?"}})
	assert.NotZero(t, buf.Len())
}
