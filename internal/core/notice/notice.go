package notice

import (
	"context"
	"fmt"
	"log/slog"

	"reload-gateway/internal/core/domain/entity"
)

// Format renders the one-line operator notice for a reload event.
func Format(ev *entity.ReloadEvent) string {
	subject := fmt.Sprintf("%s %s %d to %s via %s", ev.Reference, ev.PromoCode, ev.Amount, ev.SubscriberNumber, ev.Network)

	switch ev.Type {
	case entity.EventReloadSucceeded:
		return "reload delivered: " + subject
	case entity.EventReloadRetryScheduled:
		return fmt.Sprintf("reload attempt %d failed, requeued: %s (%s)", ev.RetryCount, subject, ev.LastError)
	case entity.EventReloadFailed:
		return fmt.Sprintf("reload failed after %d attempts: %s (%s)", ev.RetryCount, subject, ev.LastError)
	}
	return fmt.Sprintf("reload event %s: %s", ev.Type, subject)
}

// Notifier turns reload events into operator notices on the log stream.
type Notifier struct {
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Handle(ctx context.Context, ev *entity.ReloadEvent) error {
	level := slog.LevelInfo
	switch ev.Type {
	case entity.EventReloadRetryScheduled:
		level = slog.LevelWarn
	case entity.EventReloadFailed:
		level = slog.LevelError
	}

	n.logger.Log(ctx, level, Format(ev),
		slog.String("event_id", ev.ID),
		slog.String("event_type", ev.Type),
		slog.String("reference", ev.Reference),
		slog.String("status", ev.Status),
		slog.Int("retry_count", ev.RetryCount),
	)
	return nil
}
