package router

import (
	"context"
	"fmt"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
	apperrors "reload-gateway/internal/core/errors"
)

// Router maps a network to the channel that serves it. It asks the provider
// on every call, so a channel that drops out is noticed on the next attempt.
type Router struct {
	provider ports.CapabilityProvider
}

func New(provider ports.CapabilityProvider) *Router {
	return &Router{provider: provider}
}

func (r *Router) Resolve(ctx context.Context, network entity.NetworkID) (ports.ChannelHandle, error) {
	if network == entity.NetworkUnknown || network == "" {
		return ports.ChannelHandle{}, fmt.Errorf("%w: network %s", apperrors.ErrRouting, entity.NetworkUnknown)
	}

	channels, err := r.provider.Channels(ctx)
	if err != nil {
		return ports.ChannelHandle{}, fmt.Errorf("%w: list channels: %v", apperrors.ErrRouting, err)
	}

	var (
		best  ports.ChannelHandle
		found bool
	)
	for _, ch := range channels {
		if ch.Network != network || !ch.Available {
			continue
		}
		if !found || ch.Slot < best.Slot {
			best = ch
			found = true
		}
	}
	if !found {
		return ports.ChannelHandle{}, fmt.Errorf("%w: network %s", apperrors.ErrRouting, network)
	}
	return best, nil
}

func (r *Router) Channels(ctx context.Context) ([]ports.ChannelHandle, error) {
	return r.provider.Channels(ctx)
}
