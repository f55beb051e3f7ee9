package capability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
)

var ErrUnknownChannel = errors.New("no channel configured for network")

// NetworkForCarrier maps a SIM carrier or display name to the network it
// reloads. Sub-brands share their parent's menus.
func NetworkForCarrier(name string) entity.NetworkID {
	n := strings.ToUpper(name)
	switch {
	case strings.Contains(n, "SMART"), strings.Contains(n, "TNT"):
		return entity.NetworkSmart
	case strings.Contains(n, "GLOBE"), strings.Contains(n, "TM"):
		return entity.NetworkGlobe
	}
	return entity.NetworkUnknown
}

// ParseChannels reads a channel table written as "SMART=0,GLOBE=1". Carrier
// names such as "TNT=0" are accepted. Each network may appear once.
func ParseChannels(spec string) ([]ports.ChannelHandle, error) {
	var (
		out      []ports.ChannelHandle
		networks = make(map[entity.NetworkID]bool)
		slots    = make(map[int]bool)
	)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rawSlot, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("channel %q: expected NETWORK=SLOT", part)
		}
		network := NetworkForCarrier(strings.TrimSpace(name))
		if network == entity.NetworkUnknown {
			return nil, fmt.Errorf("channel %q: unknown carrier %q", part, name)
		}
		slot, err := strconv.Atoi(strings.TrimSpace(rawSlot))
		if err != nil || slot < 0 {
			return nil, fmt.Errorf("channel %q: invalid slot %q", part, rawSlot)
		}
		if networks[network] {
			return nil, fmt.Errorf("channel %q: network %s configured twice", part, network)
		}
		if slots[slot] {
			return nil, fmt.Errorf("channel %q: slot %d configured twice", part, slot)
		}
		networks[network] = true
		slots[slot] = true
		out = append(out, ports.ChannelHandle{
			Network:   network,
			Slot:      slot,
			Label:     strings.TrimSpace(name),
			Available: true,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no channels in %q", spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

type StaticProvider struct {
	mu       sync.RWMutex
	channels []ports.ChannelHandle
}

func NewStaticProvider(channels []ports.ChannelHandle) *StaticProvider {
	cp := make([]ports.ChannelHandle, len(channels))
	copy(cp, channels)
	return &StaticProvider{channels: cp}
}

func (p *StaticProvider) Channels(_ context.Context) ([]ports.ChannelHandle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ports.ChannelHandle, len(p.channels))
	copy(out, p.channels)
	return out, nil
}

func (p *StaticProvider) SetAvailable(_ context.Context, network entity.NetworkID, available bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.channels {
		if p.channels[i].Network == network {
			p.channels[i].Available = available
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownChannel, network)
}
