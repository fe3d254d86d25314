package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nadtcp/nadtcp-go/pkg/log"
)

// Framing constants.
const (
	// DefaultMaxLineSize bounds a single incoming line (4 KB).
	DefaultMaxLineSize = 4096

	// MaxLogLineSize is the longest line text copied into log events.
	MaxLogLineSize = 1024
)

// Framing errors.
var (
	// ErrLineTooLong indicates an incoming line exceeded the maximum size.
	ErrLineTooLong = errors.New("line too long")

	// ErrInvalidLine indicates an outgoing line contains a line break.
	ErrInvalidLine = errors.New("line contains line break")
)

// LineWriter writes newline-terminated lines. Each line is a single Write
// call on the underlying writer, so concurrent commands never interleave.
type LineWriter struct {
	w  io.Writer
	mu sync.Mutex

	// Logging support (optional)
	logger log.Logger
	connID string
	remote string
}

// NewLineWriter creates a new line writer.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (lw *LineWriter) SetLogger(logger log.Logger, connID, remote string) {
	lw.logger = logger
	lw.connID = connID
	lw.remote = remote
}

// WriteLine writes line followed by "\n". A trailing terminator on line is
// accepted; embedded line breaks are rejected.
// Thread-safe: can be called from multiple goroutines.
func (lw *LineWriter) WriteLine(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidLine, line)
	}

	lw.mu.Lock()
	defer lw.mu.Unlock()

	if _, err := io.WriteString(lw.w, line+"\n"); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}

	if lw.logger != nil {
		lw.logger.Log(makeLineEvent(line, log.DirectionOut, lw.connID, lw.remote))
	}
	return nil
}

// LineReader reads newline-terminated lines.
type LineReader struct {
	r       *bufio.Reader
	pending error

	// Logging support (optional)
	logger log.Logger
	connID string
	remote string
}

// NewLineReader creates a line reader with the default maximum line size.
func NewLineReader(r io.Reader) *LineReader {
	return NewLineReaderWithMaxSize(r, DefaultMaxLineSize)
}

// NewLineReaderWithMaxSize creates a line reader that rejects lines longer
// than maxSize bytes.
func NewLineReaderWithMaxSize(r io.Reader, maxSize int) *LineReader {
	if maxSize <= 0 {
		maxSize = DefaultMaxLineSize
	}
	return &LineReader{r: bufio.NewReaderSize(r, maxSize)}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (lr *LineReader) SetLogger(logger log.Logger, connID, remote string) {
	lr.logger = logger
	lr.connID = connID
	lr.remote = remote
}

// ReadLine returns the next line without its terminator ("\n" or "\r\n").
// A final unterminated line is returned before io.EOF.
func (lr *LineReader) ReadLine() (string, error) {
	if lr.pending != nil {
		return "", lr.pending
	}

	data, err := lr.r.ReadSlice('\n')
	switch {
	case err == nil:
	case errors.Is(err, bufio.ErrBufferFull):
		return "", fmt.Errorf("%w: more than %d bytes", ErrLineTooLong, lr.r.Size())
	case errors.Is(err, io.EOF) && len(data) > 0:
		lr.pending = io.EOF
	default:
		return "", err
	}

	line := strings.TrimRight(string(data), "\r\n")
	if lr.logger != nil {
		lr.logger.Log(makeLineEvent(line, log.DirectionIn, lr.connID, lr.remote))
	}
	return line, nil
}

func makeLineEvent(line string, direction log.Direction, connID, remote string) log.Event {
	text := line
	truncated := false
	if len(text) > MaxLogLineSize {
		text = text[:MaxLogLineSize]
		truncated = true
	}

	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		RemoteAddr:   remote,
		Line: &log.LineEvent{
			Text:      text,
			Size:      len(line),
			Truncated: truncated,
		},
	}
}
