package usecase

import (
	"context"
	"log/slog"
	"strings"

	"reload-gateway/internal/core/domain/entity"
	apperrors "reload-gateway/internal/core/errors"
)

type (
	SMSInput struct {
		Sender         string
		Message        string
		IdempotencyKey string
	}

	// ReceiveSMSUseCase admits reload requests that arrive as text messages,
	// e.g. "09171234567 GIGA99 99".
	ReceiveSMSUseCase struct {
		enqueue *EnqueueReloadUseCase
		logger  *slog.Logger
	}
)

func NewReceiveSMSUseCase(enqueue *EnqueueReloadUseCase, logger *slog.Logger) *ReceiveSMSUseCase {
	return &ReceiveSMSUseCase{enqueue: enqueue, logger: logger}
}

func (uc *ReceiveSMSUseCase) Execute(ctx context.Context, input SMSInput) (*EnqueueOutput, error) {
	sender := strings.TrimSpace(input.Sender)
	if sender == "" {
		return nil, apperrors.BadRequest(apperrors.WithMessage("sender is required"))
	}

	tx, err := entity.ParseReload(input.Message, sender, uc.enqueue.rules)
	if err != nil {
		uc.logger.WarnContext(ctx, "reload message rejected",
			slog.String("sender", sender),
			slog.String("reason", err.Error()),
		)
		if isValidation(err) {
			return nil, apperrors.BadRequest(apperrors.WithMessage(err.Error()), apperrors.WithError(err))
		}
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}

	return uc.enqueue.submit(ctx, tx, input.IdempotencyKey)
}
