package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypeCast is the service network-streaming NAD amplifiers
	// advertise (they embed a Cast receiver).
	ServiceTypeCast = "_googlecast._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// ControlPort is the amplifier's line-protocol port. It is not
	// advertised; the Cast port in the mDNS record is unrelated.
	ControlPort = 30001

	// BrowseTimeout is the default timeout for Find.
	BrowseTimeout = 5 * time.Second
)

// TXT record key constants.
const (
	TXTKeyModel        = "md" // Model name, e.g. "NAD C338"
	TXTKeyFriendlyName = "fn" // User-assigned name
	TXTKeyID           = "id" // Cast device ID
)

// ModelPrefix selects NAD devices among Cast receivers.
const ModelPrefix = "NAD"

// Discovery errors.
var (
	ErrNotAmplifier    = errors.New("not a NAD amplifier")
	ErrMissingRequired = errors.New("missing required field")
	ErrNotFound        = errors.New("no amplifier found")
)

// Amplifier is a discovered NAD amplifier.
type Amplifier struct {
	// Instance is the mDNS instance name.
	Instance string

	// Name is the user-assigned friendly name (may be empty).
	Name string

	// Model is the advertised model, e.g. "NAD C338".
	Model string

	// ID is the Cast device ID (may be empty).
	ID string

	// Host is the advertised host name.
	Host string

	// Addresses are the IP addresses seen for this instance, IPv4 first.
	Addresses []string
}

// ControlAddress returns host:port of the line-protocol endpoint, using
// the first known address. It returns "" when no address is known.
func (a *Amplifier) ControlAddress() string {
	if len(a.Addresses) == 0 {
		return ""
	}
	return net.JoinHostPort(a.Addresses[0], strconv.Itoa(ControlPort))
}

// DisplayName returns Name, falling back to Instance.
func (a *Amplifier) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Instance
}
