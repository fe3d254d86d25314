// Package interactive provides the nadctl interactive shell.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/nadtcp/nadtcp-go/cmd/nadctl/commands"
)

// CommandTimeout bounds a single shell command.
const CommandTimeout = 5 * time.Second

// Shell is a readline loop over a commands.Runner. Changes reported by the
// amplifier are printed as they arrive.
type Shell struct {
	runner *commands.Runner
	rl     *readline.Instance
	out    io.Writer
}

// New creates a shell. The runner's output is redirected through readline
// so asynchronous change lines do not clobber the prompt.
func New(runner *commands.Runner) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "nad> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	runner.Out = rl.Stdout()
	return &Shell{runner: runner, rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use it for log output.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run reads commands until quit, EOF or ctx ends. cancel is called when
// the user leaves the shell.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	if s.runner.Client != nil {
		s.runner.Client.SetObserver(commands.NewWatcher(s.out).Observe)
		defer s.runner.Client.SetObserver(nil)
	}
	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if quit := s.handle(ctx, line); quit {
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
	}
}

// handle runs one input line and reports whether the shell should exit.
func (s *Shell) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.printHelp()
		return false
	case "watch":
		fmt.Fprintln(s.out, "Changes are shown as they arrive")
		return false
	case "state":
		if s.runner.Client != nil {
			fmt.Fprintf(s.out, "Connection: %s\n", s.runner.Client.State())
		}
		return false
	}

	cmdCtx, cancel := context.WithTimeout(ctx, CommandTimeout)
	defer cancel()
	if err := s.runner.Execute(cmdCtx, fields); err != nil {
		if errors.Is(err, commands.ErrUnknownCommand) {
			fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", fields[0])
		} else {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
NAD Amplifier Commands:
  Control:
    power on|off          - Power on or standby
    mute / unmute         - Mute control
    volume <dB>|up|down   - Set or step the volume
    source <name>         - Select input
    raw <Name><Op>[Value] - Send a raw command, e.g. raw Main.Bass=On

  Information:
    status                - Refresh and show all reported values
    sources               - List inputs
    state                 - Show connection state
    discover              - Find amplifiers on the network

  General:
    help                  - Show this help
    quit                  - Exit`)
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("power", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem("mute"),
		readline.PcItem("unmute"),
		readline.PcItem("volume", readline.PcItem("up"), readline.PcItem("down")),
		readline.PcItem("source"),
		readline.PcItem("raw"),
		readline.PcItem("status"),
		readline.PcItem("sources"),
		readline.PcItem("state"),
		readline.PcItem("discover"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}
