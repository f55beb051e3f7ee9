package usecase

import (
	"context"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
)

type (
	QueueOutput struct {
		Stats   entity.QueueStats    `json:"stats"`
		Pending []*TransactionOutput `json:"pending"`
	}

	GetStatsUseCase struct {
		queue ports.TransactionQueue
	}

	ListQueueUseCase struct {
		queue ports.TransactionQueue
	}
)

func NewGetStatsUseCase(queue ports.TransactionQueue) *GetStatsUseCase {
	return &GetStatsUseCase{queue: queue}
}

func (uc *GetStatsUseCase) Execute(_ context.Context) entity.QueueStats {
	return uc.queue.Stats()
}

func NewListQueueUseCase(queue ports.TransactionQueue) *ListQueueUseCase {
	return &ListQueueUseCase{queue: queue}
}

func (uc *ListQueueUseCase) Execute(_ context.Context) *QueueOutput {
	snapshot := uc.queue.Snapshot()
	out := &QueueOutput{
		Stats:   uc.queue.Stats(),
		Pending: make([]*TransactionOutput, 0, len(snapshot)),
	}
	for i, tx := range snapshot {
		item := toTransactionOutput(tx)
		item.QueuePosition = i + 1
		out.Pending = append(out.Pending, item)
	}
	return out
}
