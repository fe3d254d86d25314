// Package commands implements the nad-log CLI commands.
package commands

import (
	"fmt"
	"io"

	"github.com/nadtcp/nadtcp-go/pkg/log"
	"github.com/nadtcp/nadtcp-go/pkg/wire"
)

// eventType returns a short label for the event payload.
func eventType(event log.Event) string {
	switch {
	case event.Line != nil:
		return "Line"
	case event.Update != nil:
		return "Update"
	case event.StateChange != nil:
		return "State"
	case event.Notification != nil:
		return "Notify"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s",
		ts, shortenConnID(event.ConnectionID), direction(event), event.Layer, eventType(event))

	switch {
	case event.Line != nil:
		fmt.Fprintf(w, " %q", event.Line.Text)
		if event.Line.Truncated {
			fmt.Fprintf(w, " (truncated, %d bytes)", event.Line.Size)
		}
		fmt.Fprintln(w)

	case event.Update != nil:
		fmt.Fprintf(w, " %s=%s", event.Update.Name, wire.FormatValue(event.Update.Value))
		if !event.Update.Changed {
			fmt.Fprint(w, " (unchanged)")
		}
		fmt.Fprintln(w)

	case event.StateChange != nil:
		sc := event.StateChange
		if sc.OldState != "" {
			fmt.Fprintf(w, " %s -> %s", sc.OldState, sc.NewState)
		} else {
			fmt.Fprintf(w, " -> %s", sc.NewState)
		}
		if sc.Reason != "" {
			fmt.Fprintf(w, " (%s)", sc.Reason)
		}
		fmt.Fprintln(w)

	case event.Notification != nil:
		if event.Notification.Cleared {
			fmt.Fprintln(w, " cleared")
		} else {
			fmt.Fprintf(w, " %d parameters\n", event.Notification.Parameters)
		}

	case event.Error != nil:
		fmt.Fprintf(w, " %s", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, " [%s]", event.Error.Context)
		}
		fmt.Fprintln(w)

	default:
		fmt.Fprintln(w)
	}
}

// direction returns the direction name, or "-" for events without traffic.
func direction(event log.Event) string {
	if !event.HasDirection() {
		return "-"
	}
	return event.Direction.String()
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// RunView prints the events of path that match filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
