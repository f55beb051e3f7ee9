package messaging

import (
	"context"
	"log/slog"

	"reload-gateway/internal/core/domain/entity"
)

// LogEventPublisher is a development publisher that logs reload events
// instead of sending them to a broker.
type LogEventPublisher struct {
	logger *slog.Logger
}

func NewLogEventPublisher(logger *slog.Logger) *LogEventPublisher {
	return &LogEventPublisher{logger: logger}
}

func (p *LogEventPublisher) Publish(ctx context.Context, event *entity.ReloadEvent) error {
	p.logger.InfoContext(ctx, "event published",
		slog.String("id", event.ID),
		slog.String("type", event.Type),
		slog.String("reference", event.Reference),
		slog.String("status", event.Status),
		slog.Int("retry_count", event.RetryCount),
	)
	return nil
}
