// Command nad-scenario runs YAML conversation scenarios against a fake
// amplifier on a loopback port.
//
// Each scenario starts a fresh amplifier and a real client, then drives
// both through scripted steps: lines the amplifier sends, commands the
// client issues, and expectations about notifications, state and the
// lines the amplifier received.
//
// Usage:
//
//	nad-scenario [flags] [id-pattern]
//
// Flags:
//
//	-d, --dir string            Scenario directory (default "./scenarios")
//	-t, --tag string            Only run scenarios carrying this tag
//	    --timeout duration      Per-scenario timeout (default 30s)
//	    --stop                  Stop after the first failing scenario
//	-v, --verbose               Show every step
//	    --json                  Write results as JSON
//	    --protocol-log string   Capture client events to a .nlog file
//
// Examples:
//
//	nad-scenario -d internal/testharness/runner/testdata
//	nad-scenario --dir ./scenarios --tag debounce -v
//	nad-scenario --dir ./scenarios 'SC-CONN-.*'
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/nadtcp/nadtcp-go/internal/testharness/engine"
	"github.com/nadtcp/nadtcp-go/internal/testharness/loader"
	"github.com/nadtcp/nadtcp-go/internal/testharness/reporter"
	"github.com/nadtcp/nadtcp-go/internal/testharness/runner"
	nadlog "github.com/nadtcp/nadtcp-go/pkg/log"
)

var (
	dir         = flag.StringP("dir", "d", "./scenarios", "Scenario directory")
	tag         = flag.StringP("tag", "t", "", "Only run scenarios carrying this tag")
	timeout     = flag.Duration("timeout", 30*time.Second, "Per-scenario timeout")
	stop        = flag.Bool("stop", false, "Stop after the first failing scenario")
	verbose     = flag.BoolP("verbose", "v", false, "Show every step")
	jsonOut     = flag.Bool("json", false, "Write results as JSON")
	protocolLog = flag.String("protocol-log", "", "Capture client events to a .nlog file")
)

func main() {
	flag.Parse()

	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	scenarios, err := loader.LoadDirectory(*dir)
	if err != nil {
		return 2, err
	}
	scenarios = loader.FilterByTag(scenarios, *tag)

	if flag.NArg() > 0 {
		re, err := regexp.Compile(flag.Arg(0))
		if err != nil {
			return 2, fmt.Errorf("invalid pattern: %w", err)
		}
		var matched []*loader.Scenario
		for _, sc := range scenarios {
			if re.MatchString(sc.ID) {
				matched = append(matched, sc)
			}
		}
		scenarios = matched
	}
	if len(scenarios) == 0 {
		return 2, fmt.Errorf("no scenarios selected in %s", *dir)
	}

	var opts []runner.Option
	if *protocolLog != "" {
		fl, err := nadlog.NewFileLogger(*protocolLog)
		if err != nil {
			return 2, fmt.Errorf("protocol log: %w", err)
		}
		defer fl.Close()
		opts = append(opts, runner.WithProtocolLogger(fl))
	}

	config := engine.DefaultConfig()
	config.DefaultTimeout = *timeout
	config.StopOnFirstFailure = *stop
	e := runner.New(config, opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	result := e.RunSuite(ctx, scenarios)

	var rep reporter.Reporter = reporter.NewTextReporter(os.Stdout, *verbose)
	if *jsonOut {
		rep = reporter.NewJSONReporter(os.Stdout, true)
	}
	rep.ReportSuite(result)

	if result.FailCount > 0 {
		return 1, nil
	}
	return 0, nil
}
