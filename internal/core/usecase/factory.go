package usecase

import (
	"log/slog"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
)

type Factory struct {
	Enqueue         *EnqueueReloadUseCase
	ReceiveSMS      *ReceiveSMSUseCase
	Status          *GetTransactionStatusUseCase
	Stats           *GetStatsUseCase
	Queue           *ListQueueUseCase
	Channels        *ListChannelsUseCase
	SetAvailability *SetChannelAvailabilityUseCase
}

func NewFactory(
	queue ports.TransactionQueue,
	journal ports.AttemptJournal,
	idempotency ports.IdempotencyStore,
	channels ports.CapabilityProvider,
	rules entity.Rules,
	logger *slog.Logger,
) *Factory {
	enqueue := NewEnqueueReloadUseCase(queue, journal, idempotency, rules, logger)
	return &Factory{
		Enqueue:         enqueue,
		ReceiveSMS:      NewReceiveSMSUseCase(enqueue, logger),
		Status:          NewGetTransactionStatusUseCase(queue, journal, logger),
		Stats:           NewGetStatsUseCase(queue),
		Queue:           NewListQueueUseCase(queue),
		Channels:        NewListChannelsUseCase(channels, logger),
		SetAvailability: NewSetChannelAvailabilityUseCase(channels, logger),
	}
}
