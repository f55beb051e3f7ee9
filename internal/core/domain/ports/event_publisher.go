package ports

import (
	"context"

	"reload-gateway/internal/core/domain/entity"
)

type EventPublisher interface {
	Publish(ctx context.Context, event *entity.ReloadEvent) error
}
