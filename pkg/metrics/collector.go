package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "nadtcp"

// Collector holds the metrics of one connection manager.
type Collector struct {
	ConnectionState    prometheus.Gauge
	StateTransitions   *prometheus.CounterVec
	ConnectAttempts    prometheus.Counter
	ConnectFailures    prometheus.Counter
	LinesReceived      prometheus.Counter
	LinesSent          prometheus.Counter
	DecodeErrors       *prometheus.CounterVec
	ValidationErrors   *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	SnapshotParameters prometheus.Gauge
}

// NewCollector creates the collectors without registering them.
func NewCollector() *Collector {
	return &Collector{
		ConnectionState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "connection",
				Name:      "state",
				Help:      "Connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting, 4=stopped)",
			},
		),

		StateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "connection",
				Name:      "transitions_total",
				Help:      "Total number of connection state transitions",
			},
			[]string{"state"},
		),

		ConnectAttempts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "connection",
				Name:      "attempts_total",
				Help:      "Total number of connection attempts",
			},
		),

		ConnectFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "connection",
				Name:      "failures_total",
				Help:      "Total number of failed or lost connections",
			},
		),

		LinesReceived: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "lines",
				Name:      "received_total",
				Help:      "Total number of lines received from the amplifier",
			},
		),

		LinesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "lines",
				Name:      "sent_total",
				Help:      "Total number of command lines written",
			},
		),

		DecodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "lines",
				Name:      "decode_errors_total",
				Help:      "Total number of incoming lines that failed to decode",
			},
			[]string{"reason"},
		),

		ValidationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "commands",
				Name:      "rejected_total",
				Help:      "Total number of commands rejected before sending",
			},
			[]string{"reason"},
		),

		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "observer",
				Name:      "notifications_total",
				Help:      "Total number of snapshots delivered to the observer",
			},
			[]string{"kind"},
		),

		SnapshotParameters: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "state",
				Name:      "parameters",
				Help:      "Number of parameters in the current snapshot",
			},
		),
	}
}

// Collectors returns every collector for registration.
func (c *Collector) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.ConnectionState,
		c.StateTransitions,
		c.ConnectAttempts,
		c.ConnectFailures,
		c.LinesReceived,
		c.LinesSent,
		c.DecodeErrors,
		c.ValidationErrors,
		c.Notifications,
		c.SnapshotParameters,
	}
}

// Register registers all collectors with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range c.Collectors() {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// NewRegisteredCollector creates a collector and registers it with reg.
func NewRegisteredCollector(reg prometheus.Registerer) (*Collector, error) {
	c := NewCollector()
	if err := c.Register(reg); err != nil {
		return nil, err
	}
	return c, nil
}

// The Record methods are nil-safe so callers can hold an optional *Collector.

// RecordState sets the state gauge and counts the transition.
func (c *Collector) RecordState(code int, name string) {
	if c == nil {
		return
	}
	c.ConnectionState.Set(float64(code))
	c.StateTransitions.WithLabelValues(name).Inc()
}

// RecordConnectAttempt increments the attempt counter.
func (c *Collector) RecordConnectAttempt() {
	if c == nil {
		return
	}
	c.ConnectAttempts.Inc()
}

// RecordConnectFailure increments the failure counter.
func (c *Collector) RecordConnectFailure() {
	if c == nil {
		return
	}
	c.ConnectFailures.Inc()
}

// RecordLineReceived increments the received line counter.
func (c *Collector) RecordLineReceived() {
	if c == nil {
		return
	}
	c.LinesReceived.Inc()
}

// RecordLineSent increments the sent line counter.
func (c *Collector) RecordLineSent() {
	if c == nil {
		return
	}
	c.LinesSent.Inc()
}

// RecordDecodeError increments the decode error counter.
func (c *Collector) RecordDecodeError(reason string) {
	if c == nil {
		return
	}
	c.DecodeErrors.WithLabelValues(reason).Inc()
}

// RecordValidationError increments the rejected command counter.
func (c *Collector) RecordValidationError(reason string) {
	if c == nil {
		return
	}
	c.ValidationErrors.WithLabelValues(reason).Inc()
}

// RecordNotification counts an observer delivery and the snapshot size.
// Kind is "update" for debounced flushes and "cleared" after connection loss.
func (c *Collector) RecordNotification(kind string, parameters int) {
	if c == nil {
		return
	}
	c.Notifications.WithLabelValues(kind).Inc()
	c.SnapshotParameters.Set(float64(parameters))
}
