// Package commands implements the nadctl commands shared by one-shot mode
// and the interactive shell.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nadtcp/nadtcp-go/pkg/connection"
	"github.com/nadtcp/nadtcp-go/pkg/discovery"
	"github.com/nadtcp/nadtcp-go/pkg/nad"
	"github.com/nadtcp/nadtcp-go/pkg/schema"
	"github.com/nadtcp/nadtcp-go/pkg/state"
	"github.com/nadtcp/nadtcp-go/pkg/wire"
)

// Command errors.
var (
	ErrUsage          = errors.New("usage")
	ErrUnknownCommand = errors.New("unknown command")
	ErrNotReachable   = errors.New("amplifier not reachable")
)

// Runner executes commands against one client.
type Runner struct {
	// Client is required for every command except sources and discover.
	Client *nad.Client

	// Browser is used by discover.
	Browser discovery.Browser

	// Out receives command output.
	Out io.Writer
}

// NeedsConnection reports whether cmd talks to the amplifier.
func NeedsConnection(cmd string) bool {
	switch strings.ToLower(cmd) {
	case "sources", "discover", "help":
		return false
	default:
		return true
	}
}

// Execute runs one command given as fields, e.g. ["volume", "-30"].
func (r *Runner) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: command required", ErrUsage)
	}
	cmd := strings.ToLower(args[0])
	args = args[1:]

	switch cmd {
	case "status":
		return r.status(ctx)
	case "power":
		return r.power(ctx, args)
	case "mute":
		return r.setAndConfirm(ctx, schema.ParamMute, r.Client.Mute)
	case "unmute":
		return r.setAndConfirm(ctx, schema.ParamMute, r.Client.Unmute)
	case "volume", "vol":
		return r.volume(ctx, args)
	case "source", "src":
		return r.source(ctx, args)
	case "sources":
		return r.sources()
	case "raw":
		return r.raw(ctx, args)
	case "watch":
		return r.Watch(ctx)
	case "discover":
		return r.discover(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

// WaitConnected blocks until the client is connected or ctx ends.
func (r *Runner) WaitConnected(ctx context.Context) error {
	connected := make(chan struct{}, 1)
	r.Client.Manager().OnStateChange(func(_, newState connection.State) {
		if newState == connection.StateConnected {
			select {
			case connected <- struct{}{}:
			default:
			}
		}
	})
	defer r.Client.Manager().OnStateChange(nil)

	if r.Client.State() == connection.StateConnected {
		return nil
	}
	select {
	case <-connected:
		return nil
	case <-r.Client.Manager().Done():
		return fmt.Errorf("%w: %s", ErrNotReachable, r.Client.Manager().Address())
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrNotReachable, r.Client.Manager().Address(), ctx.Err())
	}
}

func (r *Runner) status(ctx context.Context) error {
	snap, err := r.Client.Refresh(ctx)
	if err != nil {
		return err
	}
	st := nad.ParseStatus(snap)
	if st.Empty() {
		fmt.Fprintln(r.Out, "No state reported")
		return nil
	}
	fmt.Fprint(r.Out, st.String())
	return nil
}

func (r *Runner) power(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: power on|off", ErrUsage)
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return r.setAndConfirm(ctx, schema.ParamPower, r.Client.PowerOn)
	case "off":
		return r.setAndConfirm(ctx, schema.ParamPower, r.Client.PowerOff)
	default:
		return fmt.Errorf("%w: power on|off", ErrUsage)
	}
}

func (r *Runner) volume(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: volume <dB>|up|down", ErrUsage)
	}
	switch strings.ToLower(args[0]) {
	case "up", "+":
		return r.setAndConfirm(ctx, schema.ParamVolume, r.Client.VolumeUp)
	case "down", "-":
		return r.setAndConfirm(ctx, schema.ParamVolume, r.Client.VolumeDown)
	}

	db, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("%w: volume <dB>|up|down", ErrUsage)
	}
	return r.setAndConfirm(ctx, schema.ParamVolume, func() error { return r.Client.SetVolume(db) })
}

func (r *Runner) source(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: source <name>", ErrUsage)
	}
	name := strings.Join(args, " ")
	for _, s := range r.Client.AvailableSources() {
		if strings.EqualFold(s, name) {
			name = s
			break
		}
	}
	return r.setAndConfirm(ctx, schema.ParamSource, func() error { return r.Client.SelectSource(name) })
}

func (r *Runner) sources() error {
	registry := schema.C338()
	if r.Client != nil {
		registry = r.Client.Manager().Registry()
	}
	for _, s := range schema.Sources(registry) {
		fmt.Fprintln(r.Out, s)
	}
	return nil
}

func (r *Runner) raw(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: raw <Name><Op>[Value]", ErrUsage)
	}
	name, op, raw, err := wire.ParseCommand(args[0])
	if err != nil {
		return err
	}
	var value any
	if raw != "" {
		value = raw
	}
	if name == schema.ParamMain {
		if err := r.Client.Exec(name, op, value); err != nil {
			return err
		}
		return r.status(ctx)
	}
	return r.setAndConfirm(ctx, name, func() error { return r.Client.Exec(name, op, value) })
}

// setAndConfirm sends a command, then refreshes and prints the value the
// amplifier reports for name.
func (r *Runner) setAndConfirm(ctx context.Context, name string, send func() error) error {
	if err := send(); err != nil {
		return err
	}
	snap, err := r.Client.Refresh(ctx)
	if err != nil {
		return err
	}
	if v, ok := snap[name]; ok {
		fmt.Fprintf(r.Out, "%s=%s\n", name, wire.FormatValue(v))
	}
	return nil
}

// Watch prints every change the amplifier reports until ctx ends.
func (r *Runner) Watch(ctx context.Context) error {
	w := NewWatcher(r.Out)
	r.Client.SetObserver(w.Observe)
	defer r.Client.SetObserver(nil)

	select {
	case <-ctx.Done():
	case <-r.Client.Manager().Done():
	}
	return nil
}

func (r *Runner) discover(ctx context.Context) error {
	if r.Browser == nil {
		return errors.New("discovery not available")
	}
	fmt.Fprintln(r.Out, "Discovering amplifiers...")
	amps, err := r.Browser.Find(ctx)
	if err != nil {
		return err
	}
	sort.Slice(amps, func(i, j int) bool { return amps[i].DisplayName() < amps[j].DisplayName() })

	fmt.Fprintf(r.Out, "Found %d amplifier(s):\n", len(amps))
	for i, a := range amps {
		fmt.Fprintf(r.Out, "  %d. %s (%s) %s\n", i+1, a.DisplayName(), a.Model, a.ControlAddress())
	}
	return nil
}

// Watcher prints the entries that differ between consecutive snapshots.
type Watcher struct {
	out  io.Writer
	prev state.Snapshot
	now  func() time.Time
}

// NewWatcher creates a Watcher writing to out.
func NewWatcher(out io.Writer) *Watcher {
	return &Watcher{out: out, now: time.Now}
}

// Observe is a connection.Observer.
func (w *Watcher) Observe(snap state.Snapshot) {
	ts := w.now().Format("15:04:05.000")
	if len(snap) == 0 {
		fmt.Fprintf(w.out, "%s (connection lost)\n", ts)
		w.prev = nil
		return
	}

	names := make([]string, 0, len(snap))
	for name, v := range snap {
		if old, ok := w.prev[name]; !ok || old != v {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w.out, "%s %s=%s\n", ts, name, wire.FormatValue(snap[name]))
	}
	w.prev = snap
}
