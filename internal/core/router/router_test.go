package router_test

import (
	"context"
	"errors"
	"testing"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
	apperrors "reload-gateway/internal/core/errors"
	"reload-gateway/internal/core/router"
)

type mockCapabilityProvider struct {
	calls      int
	channelsFn func(ctx context.Context) ([]ports.ChannelHandle, error)
}

func (m *mockCapabilityProvider) Channels(ctx context.Context) ([]ports.ChannelHandle, error) {
	m.calls++
	if m.channelsFn != nil {
		return m.channelsFn(ctx)
	}
	return nil, nil
}

func twoSIMs() []ports.ChannelHandle {
	return []ports.ChannelHandle{
		{Network: entity.NetworkSmart, Slot: 0, Available: true},
		{Network: entity.NetworkGlobe, Slot: 1, Available: true},
	}
}

func TestResolve_ReturnsChannelForNetwork(t *testing.T) {
	provider := &mockCapabilityProvider{
		channelsFn: func(ctx context.Context) ([]ports.ChannelHandle, error) { return twoSIMs(), nil },
	}
	r := router.New(provider)

	h, err := r.Resolve(context.Background(), entity.NetworkGlobe)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if h.Slot != 1 || h.Network != entity.NetworkGlobe {
		t.Fatalf("unexpected handle %+v", h)
	}
}

func TestResolve_UnknownNetworkSkipsProvider(t *testing.T) {
	provider := &mockCapabilityProvider{}
	r := router.New(provider)

	_, err := r.Resolve(context.Background(), entity.NetworkUnknown)
	if !errors.Is(err, apperrors.ErrRouting) {
		t.Fatalf("expected ErrRouting, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("expected provider not to be consulted, got %d calls", provider.calls)
	}
}

func TestResolve_UnavailableChannel(t *testing.T) {
	provider := &mockCapabilityProvider{
		channelsFn: func(ctx context.Context) ([]ports.ChannelHandle, error) {
			return []ports.ChannelHandle{{Network: entity.NetworkSmart, Slot: 0, Available: false}}, nil
		},
	}
	r := router.New(provider)

	if _, err := r.Resolve(context.Background(), entity.NetworkSmart); !errors.Is(err, apperrors.ErrRouting) {
		t.Fatalf("expected ErrRouting, got %v", err)
	}
}

func TestResolve_ProviderErrorIsRoutingError(t *testing.T) {
	provider := &mockCapabilityProvider{
		channelsFn: func(ctx context.Context) ([]ports.ChannelHandle, error) {
			return nil, errors.New("device agent offline")
		},
	}
	r := router.New(provider)

	if _, err := r.Resolve(context.Background(), entity.NetworkSmart); !errors.Is(err, apperrors.ErrRouting) {
		t.Fatalf("expected ErrRouting, got %v", err)
	}
}

func TestResolve_ConsultsProviderEveryCall(t *testing.T) {
	available := true
	provider := &mockCapabilityProvider{
		channelsFn: func(ctx context.Context) ([]ports.ChannelHandle, error) {
			return []ports.ChannelHandle{{Network: entity.NetworkSmart, Slot: 0, Available: available}}, nil
		},
	}
	r := router.New(provider)

	if _, err := r.Resolve(context.Background(), entity.NetworkSmart); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	available = false
	if _, err := r.Resolve(context.Background(), entity.NetworkSmart); err == nil {
		t.Fatal("expected second resolve to see the channel drop out")
	}
	if provider.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", provider.calls)
	}
}

func TestResolve_PicksLowestSlotDeterministically(t *testing.T) {
	provider := &mockCapabilityProvider{
		channelsFn: func(ctx context.Context) ([]ports.ChannelHandle, error) {
			return []ports.ChannelHandle{
				{Network: entity.NetworkSmart, Slot: 3, Available: true},
				{Network: entity.NetworkSmart, Slot: 1, Available: true},
			}, nil
		},
	}
	r := router.New(provider)

	for i := 0; i < 3; i++ {
		h, err := r.Resolve(context.Background(), entity.NetworkSmart)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Slot != 1 {
			t.Fatalf("expected slot 1, got %d", h.Slot)
		}
	}
}
