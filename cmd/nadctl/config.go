package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nadtcp/nadtcp-go/pkg/connection"
	"github.com/nadtcp/nadtcp-go/pkg/log"
	"github.com/nadtcp/nadtcp-go/pkg/metrics"
)

// Config holds the nadctl configuration. Values come from the defaults,
// then the YAML file given with -config, then flags set explicitly.
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	Debounce       time.Duration `yaml:"debounce"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	Timeout        time.Duration `yaml:"timeout"`
	LogLevel       string        `yaml:"log_level"`
	ProtocolLog    string        `yaml:"protocol_log"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	Interface      string        `yaml:"interface"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Port:           connection.DefaultPort,
		ReconnectDelay: connection.DefaultReconnectDelay,
		Debounce:       100 * time.Millisecond,
		DialTimeout:    10 * time.Second,
		Timeout:        5 * time.Second,
		LogLevel:       "warn",
	}
}

// LoadConfigFile decodes the YAML file at path onto cfg. Unknown keys are
// rejected.
func LoadConfigFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ParseArgs parses flags and returns the merged configuration and the
// remaining arguments (the command).
func ParseArgs(args []string, output io.Writer) (Config, []string, error) {
	fs := flag.NewFlagSet("nadctl", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, usage)
		fs.PrintDefaults()
	}

	var configFile string
	fromFlags := DefaultConfig()
	fs.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	fs.StringVar(&fromFlags.Host, "host", "", "Amplifier host name or address")
	fs.IntVar(&fromFlags.Port, "port", fromFlags.Port, "Amplifier control port")
	fs.DurationVar(&fromFlags.ReconnectDelay, "reconnect-delay", fromFlags.ReconnectDelay, "Delay between reconnect attempts")
	fs.DurationVar(&fromFlags.Debounce, "debounce", fromFlags.Debounce, "Window for coalescing state changes")
	fs.DurationVar(&fromFlags.DialTimeout, "dial-timeout", fromFlags.DialTimeout, "TCP connect timeout")
	fs.DurationVar(&fromFlags.Timeout, "timeout", fromFlags.Timeout, "Time to wait for the amplifier per command")
	fs.StringVar(&fromFlags.LogLevel, "log-level", fromFlags.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&fromFlags.ProtocolLog, "protocol-log", "", "Write a protocol capture (.nlog) to this file")
	fs.StringVar(&fromFlags.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	fs.StringVar(&fromFlags.Interface, "interface", "", "Network interface for discovery (default: all)")

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	cfg := DefaultConfig()
	if configFile != "" {
		if err := LoadConfigFile(configFile, &cfg); err != nil {
			return Config{}, nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = fromFlags.Host
		case "port":
			cfg.Port = fromFlags.Port
		case "reconnect-delay":
			cfg.ReconnectDelay = fromFlags.ReconnectDelay
		case "debounce":
			cfg.Debounce = fromFlags.Debounce
		case "dial-timeout":
			cfg.DialTimeout = fromFlags.DialTimeout
		case "timeout":
			cfg.Timeout = fromFlags.Timeout
		case "log-level":
			cfg.LogLevel = fromFlags.LogLevel
		case "protocol-log":
			cfg.ProtocolLog = fromFlags.ProtocolLog
		case "metrics-addr":
			cfg.MetricsAddr = fromFlags.MetricsAddr
		case "interface":
			cfg.Interface = fromFlags.Interface
		}
	})

	return cfg, fs.Args(), nil
}

// Connection builds the connection configuration.
func (c Config) Connection(logger *slog.Logger, protocolLogger log.Logger, collector *metrics.Collector) connection.Config {
	return connection.Config{
		Host:           c.Host,
		Port:           c.Port,
		ReconnectDelay: c.ReconnectDelay,
		DebounceWindow: c.Debounce,
		DialTimeout:    c.DialTimeout,
		Logger:         logger,
		ProtocolLogger: protocolLogger,
		Metrics:        collector,
	}
}

// parseLogLevel maps a level name to a slog level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s (use: debug, info, warn, error)", s)
	}
}
