package usecase

import (
	"context"
	"errors"
	"log/slog"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
	apperrors "reload-gateway/internal/core/errors"
)

type (
	SetAvailabilityInput struct {
		Network   string
		Available bool
	}

	ListChannelsUseCase struct {
		channels ports.CapabilityProvider
		logger   *slog.Logger
	}

	SetChannelAvailabilityUseCase struct {
		channels ports.CapabilityProvider
		logger   *slog.Logger
	}
)

var ErrAvailabilityReadOnly = errors.New("channel availability is managed by the device")

func NewListChannelsUseCase(channels ports.CapabilityProvider, logger *slog.Logger) *ListChannelsUseCase {
	return &ListChannelsUseCase{channels: channels, logger: logger}
}

func (uc *ListChannelsUseCase) Execute(ctx context.Context) ([]ports.ChannelHandle, error) {
	channels, err := uc.channels.Channels(ctx)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to list channels", slog.String("error", err.Error()))
		return nil, apperrors.ServiceUnavailable(
			apperrors.WithMessage("channels unavailable"),
			apperrors.WithError(err),
		)
	}
	return channels, nil
}

func NewSetChannelAvailabilityUseCase(channels ports.CapabilityProvider, logger *slog.Logger) *SetChannelAvailabilityUseCase {
	return &SetChannelAvailabilityUseCase{channels: channels, logger: logger}
}

func (uc *SetChannelAvailabilityUseCase) Execute(ctx context.Context, input SetAvailabilityInput) error {
	network, ok := entity.ParseNetwork(input.Network)
	if !ok || network == entity.NetworkUnknown {
		return apperrors.BadRequest(apperrors.WithMessage("unsupported network"))
	}

	setter, ok := uc.channels.(ports.AvailabilitySetter)
	if !ok {
		return apperrors.Conflict(
			apperrors.WithMessage(ErrAvailabilityReadOnly.Error()),
			apperrors.WithError(ErrAvailabilityReadOnly),
		)
	}

	if err := setter.SetAvailable(ctx, network, input.Available); err != nil {
		uc.logger.WarnContext(ctx, "failed to set channel availability",
			slog.String("network", string(network)),
			slog.String("error", err.Error()),
		)
		return apperrors.NotFound(apperrors.WithMessage(err.Error()), apperrors.WithError(err))
	}

	uc.logger.InfoContext(ctx, "channel availability changed",
		slog.String("network", string(network)),
		slog.Bool("available", input.Available),
	)
	return nil
}
