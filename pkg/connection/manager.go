package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nadtcp/nadtcp-go/pkg/log"
	"github.com/nadtcp/nadtcp-go/pkg/schema"
	"github.com/nadtcp/nadtcp-go/pkg/state"
	"github.com/nadtcp/nadtcp-go/pkg/transport"
	"github.com/nadtcp/nadtcp-go/pkg/wire"
)

// Manager errors.
var (
	ErrAlreadyRunning = errors.New("manager already running")
)

// Stop reasons reported with the final state change.
const (
	reasonEndOfStream = "end of stream"
	reasonCancelled   = "disconnect requested"
)

// Manager owns one amplifier connection: it dials, primes the device with
// a root query, reads state lines into a Store, debounces observer
// notifications, and reconnects after transient failures.
type Manager struct {
	config   Config
	decoder  *wire.Decoder
	store    *state.Store
	debounce *state.Debouncer
	delay    *Delay

	mu            sync.RWMutex
	state         State
	conn          transport.Conn
	connID        string
	observer      Observer
	onStateChange func(oldState, newState State)
	started       bool
	stopped       bool
	stopping      bool
	cancel        context.CancelFunc
	flushed       chan struct{}

	done chan struct{}
}

// NewManager creates a manager. It does not connect until Run is called.
func NewManager(config Config) (*Manager, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config:   config,
		decoder:  wire.NewDecoder(config.Registry),
		store:    state.NewStore(),
		delay:    NewDelay(config.ReconnectDelay),
		state:    StateDisconnected,
		observer: config.Observer,
		flushed:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	m.debounce = state.NewDebouncer(config.DebounceWindow, m.flush)
	return m, nil
}

// Address returns the amplifier address (host:port).
func (m *Manager) Address() string {
	return m.config.Address()
}

// Registry returns the parameter catalog used for validation and decoding.
func (m *Manager) Registry() *schema.Registry {
	return m.config.Registry
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected returns true if currently connected.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Attempts returns the number of reconnect delays taken since the last
// successful connection.
func (m *Manager) Attempts() int {
	return m.delay.Attempts()
}

// OnStateChange sets a callback for state changes. It runs on the Run
// goroutine.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// SetObserver registers or replaces the state-change observer. Pass nil
// to stop notifications.
func (m *Manager) SetObserver(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = fn
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() state.Snapshot {
	return m.store.Snapshot()
}

// Done is closed when Run has returned.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Run connects and keeps the connection alive until the peer ends the
// stream, Disconnect is called, or ctx is cancelled. Transient failures
// are retried after the reconnect delay, indefinitely. Run returns nil in
// every one of those cases; it may only be called once.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.started = true
	if m.stopped {
		m.mu.Unlock()
		close(m.done)
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	defer close(m.done)
	defer cancel()

	reason := m.loop(ctx)
	m.setState(StateStopped, reason)
	return nil
}

func (m *Manager) loop(ctx context.Context) string {
	address := m.config.Address()
	for {
		if m.isStopping() {
			return reasonCancelled
		}
		m.setState(StateConnecting, "")
		m.config.Metrics.RecordConnectAttempt()

		err := m.session(ctx, address)
		// Once Disconnect has begun, any session end is final.
		if ctx.Err() != nil || m.isStopping() {
			return reasonCancelled
		}
		if err == nil {
			return reasonEndOfStream
		}

		m.config.Metrics.RecordConnectFailure()
		m.logError(log.LayerService, err, "session")
		m.infoLog("connection lost, reconnecting",
			"address", address,
			"error", err,
			"delay", m.delay.Interval(),
			"attempt", m.delay.Attempts()+1)

		m.setState(StateReconnecting, err.Error())
		if !m.delay.Wait(ctx) {
			return reasonCancelled
		}
	}
}

// session runs one connection from dial to teardown. It returns nil on a
// clean end of stream.
func (m *Manager) session(ctx context.Context, address string) error {
	conn, err := m.config.Dialer.Dial(ctx, address)
	if err != nil {
		return err
	}
	defer m.teardown(conn)

	// Prime the device into reporting its full state.
	if err := conn.WriteLine(wire.Encode(schema.ParamMain, schema.OpQuery, nil)); err != nil {
		return fmt.Errorf("root query failed: %w", err)
	}
	m.config.Metrics.RecordLineSent()

	m.mu.Lock()
	m.conn = conn
	m.connID = conn.ID()
	m.mu.Unlock()
	m.delay.Reset()
	m.setState(StateConnected, "")
	m.infoLog("connected", "address", address, "conn_id", conn.ID())

	// Closing the socket unblocks a pending read.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		line, err := conn.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}
		m.config.Metrics.RecordLineReceived()

		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := m.apply(conn.ID(), line); err != nil {
			return err
		}
	}
}

func (m *Manager) apply(connID, line string) error {
	name, value, err := m.decoder.DecodeLine(line)
	if err != nil {
		m.config.Metrics.RecordDecodeError(decodeReason(err))
		m.logError(log.LayerWire, err, line)
		return fmt.Errorf("decode failed: %w", err)
	}

	changed := m.store.Apply(name, value) == state.Changed
	if m.config.ProtocolLogger != nil {
		m.config.ProtocolLogger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			RemoteAddr:   m.config.Address(),
			Update:       &log.UpdateEvent{Name: name, Value: value, Changed: changed},
		})
	}
	if changed {
		m.debugLog("state changed", "param", name, "value", value)
		m.debounce.Trigger()
	}
	return nil
}

// teardown drops the connection and its state. The empty snapshot is
// delivered immediately, never debounced.
func (m *Manager) teardown(conn transport.Conn) {
	m.mu.Lock()
	m.conn = nil
	m.mu.Unlock()
	_ = conn.Close()

	m.debounce.Cancel()
	if m.store.Clear() {
		m.deliver(state.Snapshot{}, true)
	}
}

// Disconnect stops the manager. When connected it half-closes the socket
// and waits for the amplifier to end the stream; if that is not possible,
// or ctx ends first, the read loop is cancelled. Disconnect returns once
// Run has returned.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.stopped = true
		m.mu.Unlock()
		m.setState(StateStopped, reasonCancelled)
		return nil
	}
	m.stopping = true
	conn := m.conn
	current := m.state
	cancel := m.cancel
	m.mu.Unlock()

	if current == StateConnected && conn != nil {
		err := conn.CloseWrite()
		if err == nil {
			m.debugLog("disconnect: sent end of stream")
			select {
			case <-m.done:
				return nil
			case <-ctx.Done():
				m.debugLog("disconnect: peer did not close, forcing")
			}
		} else {
			m.debugLog("disconnect: force", "error", err)
		}
	}

	cancel()
	<-m.done
	return nil
}

func (m *Manager) isStopping() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stopping
}

// Exec validates a command, encodes it and writes it if connected. While
// not connected a valid command is dropped and Exec returns nil.
func (m *Manager) Exec(name string, op schema.Operator, value any) error {
	coerced, err := m.config.Registry.Validate(name, op, value)
	if err != nil {
		m.config.Metrics.RecordValidationError(validationReason(err))
		return err
	}

	m.mu.RLock()
	conn := m.conn
	connected := m.state == StateConnected
	m.mu.RUnlock()

	line := wire.Encode(name, op, coerced)
	if !connected || conn == nil {
		m.debugLog("not connected, dropping command", "command", line)
		return nil
	}

	if err := conn.WriteLine(line); err != nil {
		return fmt.Errorf("send %q: %w", line, err)
	}
	m.config.Metrics.RecordLineSent()
	return nil
}

// Refresh sends the root query and returns the snapshot once the replies
// have been collected: after the next observer flush, or after one
// debounce window if nothing changed. While not connected it returns the
// current snapshot at once.
func (m *Manager) Refresh(ctx context.Context) (state.Snapshot, error) {
	flushed := m.nextFlush()
	if err := m.Exec(schema.ParamMain, schema.OpQuery, nil); err != nil {
		return nil, err
	}
	if !m.IsConnected() {
		return m.Snapshot(), nil
	}

	t := time.NewTimer(m.debounce.Window())
	defer t.Stop()

	select {
	case <-ctx.Done():
		return m.Snapshot(), ctx.Err()
	case <-flushed:
		return m.Snapshot(), nil
	case <-t.C:
	}

	if m.debounce.Pending() {
		select {
		case <-ctx.Done():
			return m.Snapshot(), ctx.Err()
		case <-flushed:
		}
	}
	return m.Snapshot(), nil
}

func (m *Manager) flush() {
	m.deliver(m.store.Snapshot(), false)
}

func (m *Manager) deliver(snap state.Snapshot, cleared bool) {
	m.mu.RLock()
	observer := m.observer
	connID := m.connID
	m.mu.RUnlock()

	kind := "update"
	if cleared {
		kind = "cleared"
	}
	m.config.Metrics.RecordNotification(kind, len(snap))
	if m.config.ProtocolLogger != nil {
		m.config.ProtocolLogger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Layer:        log.LayerService,
			Category:     log.CategoryNotification,
			RemoteAddr:   m.config.Address(),
			Notification: &log.NotificationEvent{Parameters: len(snap), Cleared: cleared},
		})
	}

	if observer != nil {
		observer(snap)
	}
	m.signalFlush()
}

func (m *Manager) nextFlush() <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flushed
}

func (m *Manager) signalFlush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	close(m.flushed)
	m.flushed = make(chan struct{})
}

func (m *Manager) setState(newState State, reason string) {
	m.mu.Lock()
	oldState := m.state
	if oldState == newState {
		m.mu.Unlock()
		return
	}
	m.state = newState
	fn := m.onStateChange
	connID := m.connID
	m.mu.Unlock()

	m.config.Metrics.RecordState(int(newState), newState.String())
	if m.config.ProtocolLogger != nil {
		m.config.ProtocolLogger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Layer:        log.LayerService,
			Category:     log.CategoryState,
			RemoteAddr:   m.config.Address(),
			StateChange: &log.StateChangeEvent{
				OldState: oldState.String(),
				NewState: newState.String(),
				Reason:   reason,
			},
		})
	}
	m.debugLog("state change", "from", oldState, "to", newState, "reason", reason)

	if fn != nil {
		fn(oldState, newState)
	}
}

func (m *Manager) logError(layer log.Layer, err error, op string) {
	if m.config.ProtocolLogger == nil {
		return
	}
	m.mu.RLock()
	connID := m.connID
	m.mu.RUnlock()

	m.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        layer,
		Category:     log.CategoryError,
		RemoteAddr:   m.config.Address(),
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: op,
		},
	})
}

// debugLog logs a debug message if logging is enabled.
func (m *Manager) debugLog(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Debug(msg, args...)
	}
}

func (m *Manager) infoLog(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Info(msg, args...)
	}
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, wire.ErrMalformedLine):
		return "malformed"
	case errors.Is(err, wire.ErrTypeCoercion):
		return "type_coercion"
	case errors.Is(err, schema.ErrUnknownParameter):
		return "unknown_parameter"
	default:
		return "other"
	}
}

func validationReason(err error) string {
	switch {
	case errors.Is(err, schema.ErrUnknownParameter):
		return "unknown_parameter"
	case errors.Is(err, schema.ErrUnsupportedOperator):
		return "unsupported_operator"
	case errors.Is(err, schema.ErrMissingValue):
		return "missing_value"
	case errors.Is(err, schema.ErrUnexpectedValue):
		return "unexpected_value"
	case errors.Is(err, schema.ErrValueOutOfDomain):
		return "out_of_domain"
	default:
		return "other"
	}
}
