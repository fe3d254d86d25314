package main

import (
	"bytes"
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadtcp/nadtcp-go/pkg/connection"
	"github.com/nadtcp/nadtcp-go/pkg/log"
	"github.com/nadtcp/nadtcp-go/pkg/metrics"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nadctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestParseArgsDefaults(t *testing.T) {
	cfg, args, err := ParseArgs([]string{"status"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, []string{"status"}, args)
	assert.Equal(t, connection.DefaultPort, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.ReconnectDelay)
}

func TestParseArgsFlags(t *testing.T) {
	cfg, args, err := ParseArgs([]string{
		"-host", "192.168.1.40",
		"-port", "30002",
		"-debounce", "50ms",
		"-log-level", "debug",
		"volume", "-30",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.40", cfg.Host)
	assert.Equal(t, 30002, cfg.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"volume", "-30"}, args)
}

func TestParseArgsConfigFile(t *testing.T) {
	path := writeConfig(t, `
host: nad.local
port: 30001
reconnect_delay: 30s
debounce: 200ms
log_level: info
protocol_log: /tmp/amp.nlog
metrics_addr: ":9090"
`)

	cfg, _, err := ParseArgs([]string{"-config", path, "status"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "nad.local", cfg.Host)
	assert.Equal(t, 30*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "/tmp/amp.nlog", cfg.ProtocolLog)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	// Unset keys keep their defaults.
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestParseArgsFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "host: nad.local\nlog_level: info\nreconnect_delay: 30s\n")

	cfg, _, err := ParseArgs([]string{"-config", path, "-host", "10.0.0.5", "status"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Host, "explicit flag wins")
	assert.Equal(t, "info", cfg.LogLevel, "file value survives unset flag")
	assert.Equal(t, 30*time.Second, cfg.ReconnectDelay)
}

func TestParseArgsConfigErrors(t *testing.T) {
	_, _, err := ParseArgs([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &bytes.Buffer{})
	assert.Error(t, err)

	path := writeConfig(t, "hostname: nad.local\n")
	_, _, err = ParseArgs([]string{"-config", path}, &bytes.Buffer{})
	assert.Error(t, err, "unknown keys are rejected")

	empty := writeConfig(t, "")
	cfg, _, err := ParseArgs([]string{"-config", empty}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseArgsHelp(t *testing.T) {
	var out bytes.Buffer
	_, _, err := ParseArgs([]string{"-h"}, &out)
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, out.String(), "nadctl - NAD amplifier control")
	assert.Contains(t, out.String(), "-metrics-addr")
}

func TestConfigConnection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "nad.local"
	collector := metrics.NewCollector()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	cc := cfg.Connection(logger, log.NoopLogger{}, collector)
	assert.Equal(t, "nad.local", cc.Host)
	assert.Equal(t, connection.DefaultPort, cc.Port)
	assert.Equal(t, cfg.Debounce, cc.DebounceWindow)
	assert.Equal(t, "nad.local:30001", cc.Address())
	assert.Same(t, collector, cc.Metrics)
	assert.Same(t, logger, cc.Logger)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLogLevel("loud")
	assert.Error(t, err)
}

func TestSetupProtocolLog(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	pl, closeFn, err := setupProtocolLog("", logger, slog.LevelWarn)
	require.NoError(t, err)
	assert.Nil(t, pl)
	closeFn()

	pl, closeFn, err = setupProtocolLog("", logger, slog.LevelDebug)
	require.NoError(t, err)
	assert.IsType(t, &log.SlogAdapter{}, pl)
	closeFn()

	path := filepath.Join(t.TempDir(), "amp.nlog")
	pl, closeFn, err = setupProtocolLog(path, logger, slog.LevelDebug)
	require.NoError(t, err)
	assert.IsType(t, &log.MultiLogger{}, pl)
	pl.Log(log.Event{Timestamp: time.Now(), Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{NewState: "CONNECTING"}})
	closeFn()

	reader, err := log.NewReader(path)
	require.NoError(t, err)
	defer reader.Close()
	event, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, "CONNECTING", event.StateChange.NewState)
}
