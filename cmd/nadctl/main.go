// Command nadctl controls a NAD amplifier over its TCP line protocol.
//
// Usage:
//
//	nadctl [flags] <command> [args]
//
// Commands:
//
//	power on|off           Power on or standby
//	mute / unmute          Mute control
//	volume <dB>|up|down    Set or step the volume
//	source <name>          Select input
//	sources                List inputs
//	status                 Show all reported values
//	raw <Name><Op>[Value]  Send a raw command, e.g. raw Main.Bass=On
//	watch                  Print changes until interrupted
//	interactive            Interactive shell
//	discover               Find amplifiers on the network
//
// Examples:
//
//	# Turn the amplifier on and set the volume
//	nadctl -host 192.168.1.40 power on
//	nadctl -host 192.168.1.40 volume -35
//
//	# Watch changes, capture the conversation and expose metrics
//	nadctl -host nad.local -protocol-log amp.nlog -metrics-addr :9090 watch
//
//	# Use a config file
//	nadctl -config ~/.config/nadctl.yaml status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nadtcp/nadtcp-go/cmd/nadctl/commands"
	"github.com/nadtcp/nadtcp-go/cmd/nadctl/interactive"
	"github.com/nadtcp/nadtcp-go/pkg/discovery"
	"github.com/nadtcp/nadtcp-go/pkg/log"
	"github.com/nadtcp/nadtcp-go/pkg/metrics"
	"github.com/nadtcp/nadtcp-go/pkg/nad"
)

const usage = `nadctl - NAD amplifier control

Usage:
  nadctl [flags] <command> [args]

Commands:
  power on|off           Power on or standby
  mute / unmute          Mute control
  volume <dB>|up|down    Set or step the volume
  source <name>          Select input
  sources                List inputs
  status                 Show all reported values
  raw <Name><Op>[Value]  Send a raw command
  watch                  Print changes until interrupted
  interactive            Interactive shell
  discover               Find amplifiers on the network

Flags:
`

// disconnectTimeout bounds the graceful close on exit.
const disconnectTimeout = 2 * time.Second

func main() {
	cfg, args, err := ParseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, args []string) error {
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	runner := &commands.Runner{
		Out:     os.Stdout,
		Browser: discovery.NewMDNSBrowser(discovery.BrowserConfig{BrowseTimeout: cfg.Timeout, Interface: cfg.Interface}),
	}

	if args[0] != "interactive" && !commands.NeedsConnection(args[0]) {
		return runner.Execute(ctx, args)
	}
	if cfg.Host == "" {
		return errors.New("no amplifier host configured (use -host or the config file)")
	}

	// The shell owns the terminal; logs go through it.
	var shell *interactive.Shell
	var logOutput io.Writer = os.Stderr
	if args[0] == "interactive" {
		shell, err = interactive.New(runner)
		if err != nil {
			return err
		}
		logOutput = shell.Stdout()
	}
	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level}))

	protocolLogger, closeCapture, err := setupProtocolLog(cfg.ProtocolLog, logger, level)
	if err != nil {
		return err
	}
	defer closeCapture()

	var collector *metrics.Collector
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector, err = metrics.NewRegisteredCollector(reg)
		if err != nil {
			return err
		}
		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer srv.Close()
	}

	client, err := nad.NewClient(cfg.Connection(logger, protocolLogger, collector))
	if err != nil {
		return err
	}
	runner.Client = client

	go func() { _ = client.Run(context.Background()) }()
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Warn("disconnect", "error", err)
		}
	}()

	switch args[0] {
	case "interactive":
		shellCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		shell.Run(shellCtx, cancel)
		return nil
	case "watch":
		return runner.Watch(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := runner.WaitConnected(waitCtx); err != nil {
		return err
	}

	cmdCtx, cancelCmd := context.WithTimeout(ctx, cfg.Timeout)
	defer cancelCmd()
	return runner.Execute(cmdCtx, args)
}

// setupProtocolLog returns the protocol logger for the configured capture
// file. At debug level events are also written to the operational log.
func setupProtocolLog(path string, logger *slog.Logger, level slog.Level) (log.Logger, func(), error) {
	var loggers []log.Logger
	closeFn := func() {}

	if path != "" {
		fl, err := log.NewFileLogger(path)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open protocol log: %w", err)
		}
		loggers = append(loggers, fl)
		closeFn = func() {
			logger.Info("protocol capture closed", "path", path, "events", fl.Count())
			_ = fl.Close()
		}
	}
	if level <= slog.LevelDebug {
		loggers = append(loggers, log.NewSlogAdapter(logger))
	}

	switch len(loggers) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return log.NewMultiLogger(loggers...), closeFn, nil
	}
}

// serveMetrics exposes reg on addr/metrics in the background.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
