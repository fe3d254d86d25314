package nad

import (
	"context"

	"github.com/nadtcp/nadtcp-go/pkg/connection"
	"github.com/nadtcp/nadtcp-go/pkg/schema"
	"github.com/nadtcp/nadtcp-go/pkg/state"
)

// Client controls one NAD amplifier.
type Client struct {
	manager *connection.Manager
}

// NewClient creates a client. config.Registry defaults to the C338
// catalog.
func NewClient(config connection.Config) (*Client, error) {
	m, err := connection.NewManager(config)
	if err != nil {
		return nil, err
	}
	return &Client{manager: m}, nil
}

// Manager returns the underlying connection manager.
func (c *Client) Manager() *connection.Manager {
	return c.manager
}

// Run connects and keeps the connection alive. See connection.Manager.Run.
func (c *Client) Run(ctx context.Context) error {
	return c.manager.Run(ctx)
}

// Disconnect stops the client. See connection.Manager.Disconnect.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.manager.Disconnect(ctx)
}

// State returns the connection state.
func (c *Client) State() connection.State {
	return c.manager.State()
}

// Exec sends a raw command after validation.
func (c *Client) Exec(name string, op schema.Operator, value any) error {
	return c.manager.Exec(name, op, value)
}

// SetObserver registers or replaces the state-change observer.
func (c *Client) SetObserver(fn connection.Observer) {
	c.manager.SetObserver(fn)
}

// Snapshot returns the last known state.
func (c *Client) Snapshot() state.Snapshot {
	return c.manager.Snapshot()
}

// Refresh queries the amplifier and returns the resulting state.
func (c *Client) Refresh(ctx context.Context) (state.Snapshot, error) {
	return c.manager.Refresh(ctx)
}

// Status returns the last known state as a Status.
func (c *Client) Status() Status {
	return ParseStatus(c.manager.Snapshot())
}

// PowerOn turns the amplifier on.
func (c *Client) PowerOn() error {
	return c.Exec(schema.ParamPower, schema.OpAssign, schema.On)
}

// PowerOff puts the amplifier in standby.
func (c *Client) PowerOff() error {
	return c.Exec(schema.ParamPower, schema.OpAssign, schema.Off)
}

// Mute mutes the output.
func (c *Client) Mute() error {
	return c.Exec(schema.ParamMute, schema.OpAssign, schema.On)
}

// Unmute unmutes the output.
func (c *Client) Unmute() error {
	return c.Exec(schema.ParamMute, schema.OpAssign, schema.Off)
}

// SetVolume sets the volume in dB. The C338 accepts [-80, 0).
func (c *Client) SetVolume(db float64) error {
	return c.Exec(schema.ParamVolume, schema.OpAssign, db)
}

// VolumeUp raises the volume by one step.
func (c *Client) VolumeUp() error {
	return c.Exec(schema.ParamVolume, schema.OpIncrement, nil)
}

// VolumeDown lowers the volume by one step.
func (c *Client) VolumeDown() error {
	return c.Exec(schema.ParamVolume, schema.OpDecrement, nil)
}

// SelectSource switches the input. Valid names are AvailableSources.
func (c *Client) SelectSource(source string) error {
	return c.Exec(schema.ParamSource, schema.OpAssign, source)
}

// AvailableSources returns the selectable inputs in front-panel order.
func (c *Client) AvailableSources() []string {
	return schema.Sources(c.manager.Registry())
}
