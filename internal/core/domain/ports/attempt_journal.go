package ports

import (
	"context"

	"reload-gateway/internal/core/domain/entity"
)

type AttemptJournal interface {
	Begin(ctx context.Context, attempt *entity.Attempt) error
	Finish(ctx context.Context, attempt *entity.Attempt) error
	FindUnfinished(ctx context.Context) ([]*entity.Attempt, error)
	FindByReference(ctx context.Context, reference string) ([]*entity.Attempt, error)
}
