package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reload-gateway/internal/core/domain/entity"
)

var (
	ErrChannelBusy        = errors.New("channel busy")
	ErrChannelUnavailable = errors.New("channel unavailable")
	ErrNoTerminalText     = errors.New("no terminal text within timeout")
)

// ChannelHandle identifies one physical SIM channel.
type ChannelHandle struct {
	Network   entity.NetworkID `json:"network"`
	Slot      int              `json:"slot"`
	Label     string           `json:"label,omitempty"`
	Available bool             `json:"available"`
}

func (h ChannelHandle) String() string {
	return fmt.Sprintf("%s/slot%d", h.Network, h.Slot)
}

// ChannelSession is an open dialog on a channel.
type ChannelSession struct {
	ID       string
	Handle   ChannelHandle
	OpenedAt time.Time
}

// Actuator drives the interactive menu dialog on a channel. Implementations
// must honor ctx on every call.
type Actuator interface {
	OpenChannel(ctx context.Context, handle ChannelHandle, shortCode string) (ChannelSession, error)
	SendStep(ctx context.Context, session ChannelSession, text string) error
	AwaitTerminalText(ctx context.Context, session ChannelSession, timeout time.Duration) (string, error)
	CloseChannel(ctx context.Context, session ChannelSession) error
}

type CapabilityProvider interface {
	Channels(ctx context.Context) ([]ChannelHandle, error)
}

// AvailabilitySetter is implemented by providers whose channels can be taken
// out of rotation at runtime.
type AvailabilitySetter interface {
	SetAvailable(ctx context.Context, network entity.NetworkID, available bool) error
}
