// Package mock provides a fake NAD amplifier for tests: a loopback TCP
// server speaking the line protocol with scripted state.
package mock

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultState is what a powered-on C338 reports for the root query.
var DefaultState = []KeyValue{
	{"Main.Power", "On"},
	{"Main.Mute", "Off"},
	{"Main.Volume", "-40"},
	{"Main.Source", "Stream"},
	{"Main.Model", "NADC338"},
}

// KeyValue is one state line.
type KeyValue struct {
	Name  string
	Value string
}

// Amplifier is a fake amplifier.
type Amplifier struct {
	ln       net.Listener
	handlers AmplifierHandlers

	mu       sync.Mutex
	order    []string
	state    map[string]string
	received []string
	conns    map[net.Conn]struct{}
	accepted []time.Time
	acceptCh chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// AmplifierHandlers holds callbacks for amplifier behaviour.
type AmplifierHandlers struct {
	// OnLine is called for every received line. If handled is true the
	// returned replies are sent instead of the built-in response.
	OnLine func(line string) (replies []string, handled bool)

	// OnConnect is called after a connection is accepted, before any line
	// is read. Replies are sent to the new client.
	OnConnect func() []string
}

// NewAmplifier starts a fake amplifier on a loopback port with
// DefaultState.
func NewAmplifier() (*Amplifier, error) {
	return NewAmplifierWithHandlers(AmplifierHandlers{})
}

// NewAmplifierWithHandlers starts a fake amplifier whose behaviour is
// overridden by handlers.
func NewAmplifierWithHandlers(handlers AmplifierHandlers) (*Amplifier, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	a := &Amplifier{
		ln:       ln,
		handlers: handlers,
		state:    make(map[string]string),
		conns:    make(map[net.Conn]struct{}),
		acceptCh: make(chan struct{}, 64),
	}
	for _, kv := range DefaultState {
		a.SetState(kv.Name, kv.Value)
	}

	a.wg.Add(1)
	go a.acceptLoop()
	return a, nil
}

// Addr returns the listen address (host:port).
func (a *Amplifier) Addr() string {
	return a.ln.Addr().String()
}

// Host returns the listen host.
func (a *Amplifier) Host() string {
	return a.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listen port.
func (a *Amplifier) Port() int {
	return a.ln.Addr().(*net.TCPAddr).Port
}

// SetState sets a parameter reported by the root query.
func (a *Amplifier) SetState(name, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.state[name]; !ok {
		a.order = append(a.order, name)
	}
	a.state[name] = value
}

// GetState returns a parameter value.
func (a *Amplifier) GetState(name string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.state[name]
	return v, ok
}

// Received returns every line received so far, across connections.
func (a *Amplifier) Received() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.received...)
}

// Connections returns the number of accepted connections.
func (a *Amplifier) Connections() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.accepted)
}

// AcceptTimes returns when each connection was accepted.
func (a *Amplifier) AcceptTimes() []time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]time.Time(nil), a.accepted...)
}

// WaitConnections blocks until n connections have been accepted.
func (a *Amplifier) WaitConnections(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if a.Connections() >= n {
			return true
		}
		select {
		case <-a.acceptCh:
		case <-deadline:
			return a.Connections() >= n
		}
	}
}

// WaitReceived blocks until line has been received.
func (a *Amplifier) WaitReceived(line string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, l := range a.Received() {
			if l == line {
				return true
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// Send writes raw lines to every connected client.
func (a *Amplifier) Send(lines ...string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrAmplifierClosed
	}
	if len(a.conns) == 0 {
		return ErrNotConnected
	}
	for conn := range a.conns {
		for _, l := range lines {
			if _, err := conn.Write([]byte(l + "\n")); err != nil {
				return err
			}
		}
	}
	return nil
}

// EndStream closes client connections gracefully (FIN).
func (a *Amplifier) EndStream() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for conn := range a.conns {
		_ = conn.Close()
		delete(a.conns, conn)
	}
}

// Reset aborts client connections (RST) so clients see an I/O error
// rather than end of stream.
func (a *Amplifier) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for conn := range a.conns {
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetLinger(0)
		}
		_ = conn.Close()
		delete(a.conns, conn)
	}
}

// Close stops accepting and closes all connections.
func (a *Amplifier) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	for conn := range a.conns {
		_ = conn.Close()
	}
	a.mu.Unlock()

	err := a.ln.Close()
	a.wg.Wait()
	return err
}

func (a *Amplifier) acceptLoop() {
	defer a.wg.Done()
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			return
		}

		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			_ = conn.Close()
			return
		}
		a.conns[conn] = struct{}{}
		a.accepted = append(a.accepted, time.Now())
		a.mu.Unlock()

		select {
		case a.acceptCh <- struct{}{}:
		default:
		}

		a.wg.Add(1)
		go a.serve(conn)
	}
}

func (a *Amplifier) serve(conn net.Conn) {
	defer a.wg.Done()
	defer func() {
		a.mu.Lock()
		delete(a.conns, conn)
		a.mu.Unlock()
		_ = conn.Close()
	}()

	if a.handlers.OnConnect != nil {
		a.reply(conn, a.handlers.OnConnect())
	}

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			// Client half-closed or went away: end the stream.
			return
		}
		line = strings.TrimRight(line, "\r\n")

		a.mu.Lock()
		a.received = append(a.received, line)
		a.mu.Unlock()

		if a.handlers.OnLine != nil {
			if replies, handled := a.handlers.OnLine(line); handled {
				a.reply(conn, replies)
				continue
			}
		}
		a.reply(conn, a.handle(line))
	}
}

func (a *Amplifier) reply(conn net.Conn, lines []string) {
	for _, l := range lines {
		if _, err := conn.Write([]byte(l + "\n")); err != nil {
			return
		}
	}
}

// handle implements the built-in protocol behaviour.
func (a *Amplifier) handle(line string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if line == "Main?" {
		out := make([]string, 0, len(a.order))
		for _, name := range a.order {
			out = append(out, name+"="+a.state[name])
		}
		return out
	}

	if name, value, ok := strings.Cut(line, "="); ok {
		if _, known := a.state[name]; !known {
			a.order = append(a.order, name)
		}
		a.state[name] = value
		return []string{name + "=" + value}
	}

	if len(line) < 2 {
		return nil
	}
	name, op := line[:len(line)-1], line[len(line)-1]
	current, known := a.state[name]
	if !known {
		return nil
	}

	switch op {
	case '?':
		return []string{name + "=" + current}
	case '+', '-':
		next := step(current, op == '+')
		a.state[name] = next
		return []string{name + "=" + next}
	}
	return nil
}

func step(current string, up bool) string {
	if f, err := strconv.ParseFloat(current, 64); err == nil {
		if up {
			f++
		} else {
			f--
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	switch current {
	case "On":
		return "Off"
	case "Off":
		return "On"
	}
	return current
}
