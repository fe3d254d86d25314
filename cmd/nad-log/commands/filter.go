package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nadtcp/nadtcp-go/pkg/log"
)

// FilterOptions holds filter criteria as given on the command line.
// Empty fields match everything.
type FilterOptions struct {
	ConnID    string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
	Parameter string
}

var (
	layerNames = map[string]log.Layer{
		"transport": log.LayerTransport,
		"wire":      log.LayerWire,
		"service":   log.LayerService,
	}
	directionNames = map[string]log.Direction{
		"in":  log.DirectionIn,
		"out": log.DirectionOut,
	}
	categoryNames = map[string]log.Category{
		"message":      log.CategoryMessage,
		"state":        log.CategoryState,
		"notification": log.CategoryNotification,
		"error":        log.CategoryError,
	}
)

// BuildFilter parses options into a log.Filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{
		ConnectionID: opts.ConnID,
		Parameter:    opts.Parameter,
	}

	var err error
	if filter.TimeStart, err = parseTime("time-start", opts.TimeStart); err != nil {
		return filter, err
	}
	if filter.TimeEnd, err = parseTime("time-end", opts.TimeEnd); err != nil {
		return filter, err
	}
	if filter.Layer, err = lookup("layer", opts.Layer, layerNames, "transport, wire, service"); err != nil {
		return filter, err
	}
	if filter.Direction, err = lookup("direction", opts.Direction, directionNames, "in, out"); err != nil {
		return filter, err
	}
	if filter.Category, err = lookup("category", opts.Category, categoryNames, "message, state, notification, error"); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseTime accepts RFC 3339 with or without fractional seconds.
func parseTime(flag, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", flag, err)
	}
	return &t, nil
}

// lookup resolves a case-insensitive name. An empty name yields nil.
func lookup[T any](what, s string, names map[string]T, valid string) (*T, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := names[strings.ToLower(s)]
	if !ok {
		return nil, fmt.Errorf("invalid %s: %s (must be one of %s)", what, s, valid)
	}
	return &v, nil
}

// RunFilter copies events matching opts from path to a new capture file
// and returns how many were written.
func RunFilter(path, output string, opts FilterOptions) (int, error) {
	filter, err := BuildFilter(opts)
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open capture: %w", err)
	}
	defer reader.Close()

	out, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output capture: %w", err)
	}
	defer out.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return out.Count(), nil
		}
		if err != nil {
			return out.Count(), fmt.Errorf("failed to read event: %w", err)
		}
		out.Log(event)
	}
}
