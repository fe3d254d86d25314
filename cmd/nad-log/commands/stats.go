package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/nadtcp/nadtcp-go/pkg/log"
)

// Stats holds aggregate statistics about a capture.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	UpdatesByParam    map[string]int
	Connections       map[string]*ConnectionStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen     time.Time
	LastSeen      time.Time
	Events        int
	LinesIn       int
	LinesOut      int
	Notifications int
}

// CollectStats reads the capture at path.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		UpdatesByParam:    make(map[string]int),
		Connections:       make(map[string]*ConnectionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(&event)
	}
}

func (s *Stats) add(e *log.Event) {
	s.TotalEvents++
	s.EventsByLayer[e.Layer]++
	s.EventsByCategory[e.Category]++
	if e.HasDirection() {
		s.EventsByDirection[e.Direction]++
	}

	if s.TimeRange.Start.IsZero() || e.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = e.Timestamp
	}
	if e.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = e.Timestamp
	}
	if e.Update != nil {
		s.UpdatesByParam[e.Update.Name]++
	}
	if e.Error != nil {
		s.Errors++
	}

	// State changes before the first dial carry no connection ID.
	if e.ConnectionID == "" {
		return
	}
	conn := s.Connections[e.ConnectionID]
	if conn == nil {
		conn = &ConnectionStats{FirstSeen: e.Timestamp, LastSeen: e.Timestamp}
		s.Connections[e.ConnectionID] = conn
	}
	conn.Events++
	if e.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = e.Timestamp
	}
	switch {
	case e.Line != nil && e.Direction == log.DirectionIn:
		conn.LinesIn++
	case e.Line != nil:
		conn.LinesOut++
	case e.Notification != nil:
		conn.Notifications++
	}
}

// RunStats analyzes the capture and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== NAD Protocol Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	printCounts(w, "Events by Layer", []log.Layer{log.LayerTransport, log.LayerWire, log.LayerService}, stats.EventsByLayer)
	printCounts(w, "Events by Category", []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryNotification, log.CategoryError}, stats.EventsByCategory)
	printCounts(w, "Events by Direction", []log.Direction{log.DirectionIn, log.DirectionOut}, stats.EventsByDirection)

	if len(stats.UpdatesByParam) > 0 {
		names := make([]string, 0, len(stats.UpdatesByParam))
		for name := range stats.UpdatesByParam {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w, "Updates by Parameter:")
		for _, name := range names {
			fmt.Fprintf(w, "  %-20s %d\n", name+":", stats.UpdatesByParam[name])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenConnID(c.id), c.stats.Events, duration)
			fmt.Fprintf(w, "           Lines: %d in, %d out\n", c.stats.LinesIn, c.stats.LinesOut)
			if c.stats.Notifications > 0 {
				fmt.Fprintf(w, "           Notifications: %d\n", c.stats.Notifications)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

// printCounts writes one section with a line per non-zero key, in order.
func printCounts[K interface {
	comparable
	fmt.Stringer
}](w io.Writer, title string, order []K, counts map[K]int) {
	fmt.Fprintln(w, title+":")
	for _, k := range order {
		if n := counts[k]; n > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", k.String()+":", n)
		}
	}
	fmt.Fprintln(w)
}
