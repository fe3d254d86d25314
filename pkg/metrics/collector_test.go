package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewRegisteredCollector(reg)
	require.NoError(t, err)
	require.NotNil(t, c)

	// Registering the same collectors twice fails.
	assert.Error(t, c.Register(reg))
}

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	c.RecordState(2, "CONNECTED")
	c.RecordState(3, "RECONNECTING")
	c.RecordState(2, "CONNECTED")
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ConnectionState))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.StateTransitions.WithLabelValues("CONNECTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StateTransitions.WithLabelValues("RECONNECTING")))

	c.RecordConnectAttempt()
	c.RecordConnectAttempt()
	c.RecordConnectFailure()
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ConnectAttempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ConnectFailures))

	c.RecordLineReceived()
	c.RecordLineSent()
	c.RecordLineSent()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LinesReceived))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.LinesSent))

	c.RecordDecodeError("malformed")
	c.RecordValidationError("out_of_domain")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.DecodeErrors.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ValidationErrors.WithLabelValues("out_of_domain")))

	c.RecordNotification("update", 4)
	c.RecordNotification("cleared", 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Notifications.WithLabelValues("update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Notifications.WithLabelValues("cleared")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.SnapshotParameters))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordState(1, "CONNECTING")
		c.RecordConnectAttempt()
		c.RecordConnectFailure()
		c.RecordLineReceived()
		c.RecordLineSent()
		c.RecordDecodeError("x")
		c.RecordValidationError("x")
		c.RecordNotification("update", 1)
	})
}
