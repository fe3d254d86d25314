package commands

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nadtcp/nadtcp-go/pkg/log"
	"github.com/nadtcp/nadtcp-go/pkg/wire"
)

// Export formats.
const (
	FormatJSONL      = "jsonl"
	FormatCSV        = "csv"
	FormatTranscript = "transcript"
)

// csvHeader names the columns written by the csv format.
var csvHeader = []string{"timestamp", "connection_id", "direction", "layer", "category", "type", "detail"}

// eventSink writes events in one export format.
type eventSink interface {
	write(event log.Event) error
	flush() error
}

// RunExport converts a capture to jsonl, csv or transcript. The
// transcript holds only raw protocol lines, prefixed "> " when sent and
// "< " when received, so it reads like a terminal session.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	sink, err := newSink(format, w)
	if err != nil {
		return err
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := sink.write(event); err != nil {
			return err
		}
	}
	return sink.flush()
}

func newSink(format string, w io.Writer) (eventSink, error) {
	switch format {
	case FormatJSONL:
		return jsonlSink{enc: json.NewEncoder(w)}, nil
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		return csvSink{w: cw}, nil
	case FormatTranscript:
		return transcriptSink{w: w}, nil
	}
	return nil, fmt.Errorf("unknown format: %s (supported: %s, %s, %s)",
		format, FormatJSONL, FormatCSV, FormatTranscript)
}

type jsonlSink struct{ enc *json.Encoder }

func (s jsonlSink) write(event log.Event) error {
	if err := s.enc.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return nil
}

func (jsonlSink) flush() error { return nil }

type csvSink struct{ w *csv.Writer }

func (s csvSink) write(event log.Event) error {
	return s.w.Write([]string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.ConnectionID,
		direction(event),
		event.Layer.String(),
		event.Category.String(),
		eventType(event),
		eventDetail(event),
	})
}

func (s csvSink) flush() error {
	s.w.Flush()
	return s.w.Error()
}

type transcriptSink struct{ w io.Writer }

func (s transcriptSink) write(event log.Event) error {
	if event.Line == nil {
		return nil
	}
	prefix := "< "
	if event.Direction == log.DirectionOut {
		prefix = "> "
	}
	_, err := fmt.Fprintf(s.w, "%s %s%s\n", event.Timestamp.UTC().Format("15:04:05.000"), prefix, event.Line.Text)
	return err
}

func (transcriptSink) flush() error { return nil }

// eventDetail is a single-field summary of the payload.
func eventDetail(event log.Event) string {
	switch {
	case event.Line != nil:
		return event.Line.Text
	case event.Update != nil:
		return event.Update.Name + "=" + wire.FormatValue(event.Update.Value)
	case event.StateChange != nil:
		return event.StateChange.NewState
	case event.Notification != nil:
		if event.Notification.Cleared {
			return "cleared"
		}
		return strconv.Itoa(event.Notification.Parameters)
	case event.Error != nil:
		return event.Error.Message
	default:
		return ""
	}
}
