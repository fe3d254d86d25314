package discovery

import (
	"context"
	"time"
)

// Browser finds amplifiers on the local network.
type Browser interface {
	// Browse streams amplifiers as they are found. The channel is closed
	// when ctx is cancelled.
	Browse(ctx context.Context) (<-chan *Amplifier, error)

	// Find collects amplifiers until ctx ends or the browse timeout
	// elapses. It fails with ErrNotFound when nothing answered.
	Find(ctx context.Context) ([]*Amplifier, error)
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds Find when ctx has no deadline.
	// Default: 5 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
	}
}

// ServiceEntry is a resolved mDNS service instance, independent of the
// mDNS library.
type ServiceEntry struct {
	Instance string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

// ToAmplifier converts a ServiceEntry to an Amplifier.
func (e *ServiceEntry) ToAmplifier() (*Amplifier, error) {
	info, err := DecodeAmplifierTXT(StringsToTXTRecords(e.Text))
	if err != nil {
		return nil, err
	}

	return &Amplifier{
		Instance:  e.Instance,
		Name:      info.Name,
		Model:     info.Model,
		ID:        info.ID,
		Host:      e.Host,
		Addresses: append([]string(nil), e.Addrs...),
	}, nil
}

// aggregate turns entry events into amplifiers. Services are aggregated by
// instance name: addresses from multiple interfaces are combined and an
// amplifier is emitted once, when first seen.
func aggregate(ctx context.Context, entries, removed <-chan *ServiceEntry, out chan<- *Amplifier) {
	defer close(out)

	known := make(map[string]*Amplifier)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			amp, err := entry.ToAmplifier()
			if err != nil {
				continue
			}

			if existing, found := known[amp.Instance]; found {
				existing.Addresses = mergeAddresses(existing.Addresses, amp.Addresses)
				continue
			}
			known[amp.Instance] = amp
			select {
			case out <- amp:
			case <-ctx.Done():
				return
			}

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			if existing, found := known[entry.Instance]; found {
				existing.Addresses = removeAddresses(existing.Addresses, entry.Addrs)
				if len(existing.Addresses) == 0 {
					delete(known, entry.Instance)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// collect drains amplifiers until the channel closes.
func collect(ch <-chan *Amplifier) []*Amplifier {
	var result []*Amplifier
	for amp := range ch {
		result = append(result, amp)
	}
	return result
}

// mergeAddresses appends new addresses not already present.
func mergeAddresses(existing, new []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range new {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops the given addresses from the list.
func removeAddresses(addresses, gone []string) []string {
	toRemove := make(map[string]bool, len(gone))
	for _, addr := range gone {
		toRemove[addr] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
