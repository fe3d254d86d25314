// Package runner binds scenario actions to a fake amplifier and a real
// client so YAML scenarios can drive end-to-end conversations.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nadtcp/nadtcp-go/internal/testharness/engine"
	"github.com/nadtcp/nadtcp-go/internal/testharness/loader"
	"github.com/nadtcp/nadtcp-go/internal/testharness/mock"
	"github.com/nadtcp/nadtcp-go/pkg/connection"
	"github.com/nadtcp/nadtcp-go/pkg/log"
	"github.com/nadtcp/nadtcp-go/pkg/nad"
	"github.com/nadtcp/nadtcp-go/pkg/schema"
	"github.com/nadtcp/nadtcp-go/pkg/state"
	"github.com/nadtcp/nadtcp-go/pkg/wire"
)

const (
	defaultDebounce  = 50 * time.Millisecond
	defaultReconnect = 200 * time.Millisecond
	pollInterval     = 5 * time.Millisecond
)

// Errors returned by actions.
var (
	ErrNoAmplifier   = errors.New("no amplifier in scenario")
	ErrNotStarted    = errors.New("client not started, use connect first")
	ErrAlreadyActive = errors.New("client already started")
	ErrWaitTimeout   = errors.New("condition not reached before timeout")
)

const keySession = "session"

// session is the per-scenario fixture.
type session struct {
	amp       *mock.Amplifier
	debounce  time.Duration
	reconnect time.Duration
	logger    log.Logger

	client  *nad.Client
	runDone chan struct{}

	mu            sync.Mutex
	notifications []state.Snapshot
	states        []connection.State
}

func (s *session) observe(snap state.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, snap.Clone())
}

func (s *session) onState(_, newState connection.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, newState)
}

func (s *session) notificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

func (s *session) lastNotification() (state.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.notifications) == 0 {
		return nil, false
	}
	return s.notifications[len(s.notifications)-1], true
}

func (s *session) sawState(want string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.states {
		if st.String() == want {
			return true
		}
	}
	return false
}

// Option customizes the fixture built for each scenario.
type Option func(*options)

type options struct {
	protocolLogger log.Logger
}

// WithProtocolLogger captures the client side of every scenario.
func WithProtocolLogger(l log.Logger) Option {
	return func(o *options) { o.protocolLogger = l }
}

// New returns an engine with every amplifier action registered.
func New(config *engine.Config, opts ...Option) *engine.Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if config == nil {
		config = engine.DefaultConfig()
	}
	config.Setup = func(ctx context.Context, sc *loader.Scenario, st *engine.ExecutionState) error {
		return setup(ctx, sc, st, o)
	}
	e := engine.NewWithConfig(config)
	Register(e)
	return e
}

// Register adds the amplifier actions and checkers to e.
func Register(e *engine.Engine) {
	e.RegisterHandler("connect", handleConnect)
	e.RegisterHandler("disconnect", handleDisconnect)
	e.RegisterHandler("exec", handleExec)
	e.RegisterHandler("command", handleCommand)
	e.RegisterHandler("refresh", handleRefresh)
	e.RegisterHandler("snapshot", handleSnapshot)
	e.RegisterHandler("wait", handleWait)
	e.RegisterHandler("wait_state", handleWaitState)
	e.RegisterHandler("wait_notifications", handleWaitNotifications)
	e.RegisterHandler("wait_connections", handleWaitConnections)
	e.RegisterHandler("amp_send", handleAmpSend)
	e.RegisterHandler("amp_set", handleAmpSet)
	e.RegisterHandler("amp_reset", handleAmpReset)
	e.RegisterHandler("amp_end_stream", handleAmpEndStream)

	e.RegisterChecker("error_contains", checkErrorContains)
	e.RegisterChecker("received_contains", checkReceivedContains)
	e.RegisterChecker("received_excludes", checkReceivedExcludes)
}

func setup(_ context.Context, sc *loader.Scenario, st *engine.ExecutionState, o options) error {
	amp, err := mock.NewAmplifier()
	if err != nil {
		return err
	}
	for name, value := range sc.Setup.State {
		amp.SetState(name, value)
	}

	s := &session{
		amp:       amp,
		debounce:  defaultDebounce,
		reconnect: defaultReconnect,
		logger:    o.protocolLogger,
	}
	if sc.Setup.DebounceMS > 0 {
		s.debounce = time.Duration(sc.Setup.DebounceMS) * time.Millisecond
	}
	if sc.Setup.ReconnectMS > 0 {
		s.reconnect = time.Duration(sc.Setup.ReconnectMS) * time.Millisecond
	}
	st.Custom[keySession] = s

	st.OnCleanup(func() {
		if s.client != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			_ = s.client.Disconnect(ctx)
			cancel()
			<-s.runDone
		}
		_ = amp.Close()
	})
	return nil
}

func getSession(st *engine.ExecutionState) (*session, error) {
	s, ok := st.Custom[keySession].(*session)
	if !ok || s.amp == nil {
		return nil, ErrNoAmplifier
	}
	return s, nil
}

func getClient(st *engine.ExecutionState) (*session, error) {
	s, err := getSession(st)
	if err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, ErrNotStarted
	}
	return s, nil
}

// handleConnect starts the client against the fake amplifier. With
// wait: false it returns without waiting for CONNECTED.
func handleConnect(ctx context.Context, step *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getSession(st)
	if err != nil {
		return nil, err
	}
	if s.client != nil {
		return nil, ErrAlreadyActive
	}

	client, err := nad.NewClient(connection.Config{
		Host:           s.amp.Host(),
		Port:           s.amp.Port(),
		DebounceWindow: s.debounce,
		ReconnectDelay: s.reconnect,
		DialTimeout:    time.Second,
		Observer:       s.observe,
		ProtocolLogger: s.logger,
	})
	if err != nil {
		return nil, err
	}
	client.Manager().OnStateChange(s.onState)
	s.client = client
	s.runDone = make(chan struct{})
	go func() {
		defer close(s.runDone)
		_ = client.Run(context.Background())
	}()

	if wait, ok := step.Params["wait"].(bool); ok && !wait {
		return map[string]any{"state": client.State().String()}, nil
	}
	// The amplifier must also have registered the socket, or amp_* steps
	// could miss it.
	if err := poll(ctx, func() bool {
		return client.State() == connection.StateConnected && s.amp.Connections() > 0
	}); err != nil {
		return map[string]any{"state": client.State().String()}, err
	}
	return map[string]any{"state": client.State().String()}, nil
}

func handleDisconnect(ctx context.Context, _ *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getClient(st)
	if err != nil {
		return nil, err
	}
	err = s.client.Disconnect(ctx)
	return map[string]any{
		"state":         s.client.State().String(),
		"snapshot_len":  len(s.client.Snapshot()),
		"notifications": s.notificationCount(),
	}, err
}

// handleExec runs one command. Command errors are reported through the
// "error" output, not as step failures.
func handleExec(_ context.Context, step *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getClient(st)
	if err != nil {
		return nil, err
	}
	op, err := schema.ParseOperator(engine.StringParam(step.Params, "op"))
	if err != nil {
		return nil, err
	}
	execErr := s.client.Exec(engine.StringParam(step.Params, "name"), op, step.Params["value"])
	return execOutputs(execErr), nil
}

// handleCommand parses a raw command line such as "Main.Volume=-20" and
// runs it.
func handleCommand(_ context.Context, step *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getClient(st)
	if err != nil {
		return nil, err
	}
	name, op, value, err := wire.ParseCommand(engine.StringParam(step.Params, "line"))
	if err != nil {
		return execOutputs(err), nil
	}
	var v any
	if op.TakesValue() {
		v = value
	}
	return execOutputs(s.client.Exec(name, op, v)), nil
}

func execOutputs(err error) map[string]any {
	out := map[string]any{"error": "", "rejected": false}
	if err != nil {
		out["error"] = err.Error()
		var verr *schema.ValidationError
		out["rejected"] = errors.As(err, &verr) || errors.Is(err, wire.ErrMalformedLine)
	}
	return out
}

func handleRefresh(ctx context.Context, _ *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getClient(st)
	if err != nil {
		return nil, err
	}
	snap, err := s.client.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return flatten("snapshot", snap), nil
}

// handleSnapshot exposes the client's state as snapshot.<name> outputs
// and the last observer delivery as notification.<name>.
func handleSnapshot(_ context.Context, _ *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getClient(st)
	if err != nil {
		return nil, err
	}
	out := flatten("snapshot", s.client.Snapshot())
	if last, ok := s.lastNotification(); ok {
		for k, v := range flatten("notification", last) {
			out[k] = v
		}
	}
	out["notifications"] = s.notificationCount()
	out["state"] = s.client.State().String()
	return out, nil
}

func flatten(prefix string, snap state.Snapshot) map[string]any {
	out := make(map[string]any, len(snap)+1)
	for k, v := range snap {
		out[prefix+"."+k] = v
	}
	out[prefix+"_len"] = len(snap)
	return out
}

func handleWait(ctx context.Context, step *loader.Step, _ *engine.ExecutionState) (map[string]any, error) {
	d := time.Duration(engine.IntParam(step.Params, "ms", 0)) * time.Millisecond
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		return nil, nil
	}
}

// handleWaitState waits until the client has been in the named state.
// A state that was passed through earlier counts.
func handleWaitState(ctx context.Context, step *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getClient(st)
	if err != nil {
		return nil, err
	}
	want := strings.ToUpper(engine.StringParam(step.Params, "state"))
	err = poll(ctx, func() bool {
		return s.client.State().String() == want || s.sawState(want)
	})
	return map[string]any{"state": s.client.State().String()}, err
}

// handleWaitNotifications waits for count observer calls in total, then
// for settle_ms more so that extra calls would be seen.
func handleWaitNotifications(ctx context.Context, step *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getClient(st)
	if err != nil {
		return nil, err
	}
	count := engine.IntParam(step.Params, "count", 1)
	if err := poll(ctx, func() bool { return s.notificationCount() >= count }); err != nil {
		return map[string]any{"notifications": s.notificationCount()}, err
	}
	if settle := engine.IntParam(step.Params, "settle_ms", 0); settle > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(settle) * time.Millisecond):
		}
	}
	out := map[string]any{"notifications": s.notificationCount()}
	if last, ok := s.lastNotification(); ok {
		for k, v := range flatten("notification", last) {
			out[k] = v
		}
	}
	return out, nil
}

func handleWaitConnections(ctx context.Context, step *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getSession(st)
	if err != nil {
		return nil, err
	}
	count := engine.IntParam(step.Params, "count", 1)
	timeout := time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	if !s.amp.WaitConnections(count, timeout) {
		return map[string]any{"connections": s.amp.Connections()}, fmt.Errorf("%w: %d connections", ErrWaitTimeout, s.amp.Connections())
	}
	out := map[string]any{"connections": s.amp.Connections()}
	if times := s.amp.AcceptTimes(); len(times) >= 2 {
		gap := times[len(times)-1].Sub(times[len(times)-2])
		out["reconnect_gap_ms"] = gap.Milliseconds()
	}
	return out, nil
}

func handleAmpSend(_ context.Context, step *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getSession(st)
	if err != nil {
		return nil, err
	}
	var lines []string
	switch v := step.Params["lines"].(type) {
	case []any:
		for _, l := range v {
			lines = append(lines, fmt.Sprint(l))
		}
	case string:
		lines = append(lines, v)
	}
	if line := engine.StringParam(step.Params, "line"); line != "" {
		lines = append(lines, line)
	}
	return map[string]any{"sent": len(lines)}, s.amp.Send(lines...)
}

func handleAmpSet(_ context.Context, step *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getSession(st)
	if err != nil {
		return nil, err
	}
	s.amp.SetState(engine.StringParam(step.Params, "name"), engine.StringParam(step.Params, "value"))
	return nil, nil
}

func handleAmpReset(_ context.Context, _ *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getSession(st)
	if err != nil {
		return nil, err
	}
	s.amp.Reset()
	return nil, nil
}

func handleAmpEndStream(_ context.Context, _ *loader.Step, st *engine.ExecutionState) (map[string]any, error) {
	s, err := getSession(st)
	if err != nil {
		return nil, err
	}
	s.amp.EndStream()
	return nil, nil
}

func checkErrorContains(key string, expected any, st *engine.ExecutionState) *engine.ExpectResult {
	actual, _ := st.Get("error")
	msg, _ := actual.(string)
	want := fmt.Sprint(expected)
	passed := (want == "" && msg == "") || (want != "" && strings.Contains(msg, want))
	return &engine.ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   msg,
		Passed:   passed,
		Message:  fmt.Sprintf("error %q contains %q", msg, want),
	}
}

func checkReceivedContains(key string, expected any, st *engine.ExecutionState) *engine.ExpectResult {
	return checkReceived(key, expected, st, true)
}

func checkReceivedExcludes(key string, expected any, st *engine.ExecutionState) *engine.ExpectResult {
	return checkReceived(key, expected, st, false)
}

func checkReceived(key string, expected any, st *engine.ExecutionState, want bool) *engine.ExpectResult {
	r := &engine.ExpectResult{Key: key, Expected: expected}
	s, err := getSession(st)
	if err != nil {
		r.Message = err.Error()
		return r
	}
	line := fmt.Sprint(expected)
	if want {
		// Writes race the check; give the amplifier a moment to read.
		r.Passed = s.amp.WaitReceived(line, time.Second)
	} else {
		r.Passed = true
		for _, l := range s.amp.Received() {
			if l == line {
				r.Passed = false
				break
			}
		}
	}
	r.Actual = s.amp.Received()
	r.Message = fmt.Sprintf("received %v, %s %q", r.Actual, key, line)
	return r
}

func poll(ctx context.Context, cond func() bool) error {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		if cond() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrWaitTimeout, ctx.Err())
		case <-t.C:
		}
	}
}
