package discovery

import (
	"context"
	"net"

	"github.com/enbility/zeroconf/v3"
)

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = BrowseTimeout
	}
	return &MDNSBrowser{config: config}
}

// Browse searches for Cast receivers and emits those that are NAD
// amplifiers.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *Amplifier, error) {
	out := make(chan *Amplifier)

	rawEntries := make(chan *zeroconf.ServiceEntry)
	rawRemoved := make(chan *zeroconf.ServiceEntry)
	entries := make(chan *ServiceEntry)
	removed := make(chan *ServiceEntry)

	// Convert library entries
	go func(rawEntries, rawRemoved <-chan *zeroconf.ServiceEntry) {
		defer close(entries)
		for {
			select {
			case e, ok := <-rawEntries:
				if !ok {
					return
				}
				select {
				case entries <- fromZeroconf(e):
				case <-ctx.Done():
					return
				}
			case e, ok := <-rawRemoved:
				if !ok {
					rawRemoved = nil
					continue
				}
				select {
				case removed <- fromZeroconf(e):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}(rawEntries, rawRemoved)

	go aggregate(ctx, entries, removed, out)

	// Start browsing in background
	opts := b.browserOptions()
	go func() {
		_ = zeroconf.Browse(ctx, ServiceTypeCast, Domain, rawEntries, rawRemoved, opts...)
	}()

	return out, nil
}

// Find collects amplifiers until ctx ends or the browse timeout elapses.
func (b *MDNSBrowser) Find(ctx context.Context) ([]*Amplifier, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.BrowseTimeout)
		defer cancel()
	}

	ch, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	found := collect(ch)
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found, nil
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	// Select specific interface if configured
	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// fromZeroconf converts a library entry, IPv4 addresses first.
func fromZeroconf(entry *zeroconf.ServiceEntry) *ServiceEntry {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &ServiceEntry{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Port:     uint16(entry.Port),
		Text:     entry.Text,
		Addrs:    addrs,
	}
}

// Ensure MDNSBrowser implements Browser interface.
var _ Browser = (*MDNSBrowser)(nil)
