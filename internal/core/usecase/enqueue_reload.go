package usecase

import (
	"context"
	"errors"
	"log/slog"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
	apperrors "reload-gateway/internal/core/errors"
)

const (
	// StatusUnknown is reported for a replayed reference no store remembers.
	StatusUnknown = "UNKNOWN"

	maxReferenceDraws = 5
)

var ErrReferenceInUse = errors.New("transaction reference already in use")

type (
	EnqueueInput struct {
		SubscriberNumber string
		PromoCode        string
		Amount           int
		Network          string
		IdempotencyKey   string
	}

	EnqueueOutput struct {
		Reference     string `json:"reference"`
		Status        string `json:"status"`
		QueuePosition int    `json:"queue_position"`
		Idempotent    bool   `json:"-"`
	}

	EnqueueReloadUseCase struct {
		queue       ports.TransactionQueue
		journal     ports.AttemptJournal
		idempotency ports.IdempotencyStore
		rules       entity.Rules
		logger      *slog.Logger
	}
)

func NewEnqueueReloadUseCase(
	queue ports.TransactionQueue,
	journal ports.AttemptJournal,
	idempotency ports.IdempotencyStore,
	rules entity.Rules,
	logger *slog.Logger,
) *EnqueueReloadUseCase {
	return &EnqueueReloadUseCase{
		queue:       queue,
		journal:     journal,
		idempotency: idempotency,
		rules:       rules,
		logger:      logger,
	}
}

func (uc *EnqueueReloadUseCase) Execute(ctx context.Context, input EnqueueInput) (*EnqueueOutput, error) {
	tx, err := entity.NewTransaction(entity.ReloadInput{
		SubscriberNumber: input.SubscriberNumber,
		PromoCode:        input.PromoCode,
		Amount:           input.Amount,
		Network:          input.Network,
	}, uc.rules)
	if err != nil {
		uc.logger.WarnContext(ctx, "reload validation failed", slog.String("reason", err.Error()))
		return nil, apperrors.BadRequest(apperrors.WithMessage(err.Error()), apperrors.WithError(err))
	}

	return uc.submit(ctx, tx, input.IdempotencyKey)
}

// submit admits a validated transaction. When key was already used, the
// earlier transaction is reported instead and nothing is queued.
func (uc *EnqueueReloadUseCase) submit(ctx context.Context, tx *entity.Transaction, key string) (*EnqueueOutput, error) {
	if err := uc.claimReference(ctx, tx); err != nil {
		return nil, err
	}

	if key != "" && uc.idempotency != nil {
		existing, reserved, err := uc.idempotency.Reserve(ctx, key, tx.Reference)
		if err != nil {
			uc.logger.ErrorContext(ctx, "idempotency reservation failed",
				slog.String("reference", tx.Reference),
				slog.String("error", err.Error()),
			)
			return nil, apperrors.Unexpected(apperrors.WithError(err))
		}
		if !reserved {
			return uc.replay(ctx, existing), nil
		}
	}

	if !uc.queue.Enqueue(tx) {
		uc.release(ctx, key, tx.Reference)
		if uc.queue.Size() < uc.queue.Capacity() {
			uc.logger.ErrorContext(ctx, "reload rejected, reference already in use",
				slog.String("reference", tx.Reference),
			)
			return nil, apperrors.Conflict(
				apperrors.WithMessage("reference already in use, retry the request"),
				apperrors.WithError(ErrReferenceInUse),
			)
		}
		uc.logger.WarnContext(ctx, "reload rejected, queue is full",
			slog.String("reference", tx.Reference),
			slog.Int("capacity", uc.queue.Capacity()),
		)
		return nil, apperrors.ServiceUnavailable(
			apperrors.WithMessage("queue is full"),
			apperrors.WithError(apperrors.ErrCapacity),
		)
	}

	position := positionOf(uc.queue, tx.Reference)
	uc.logger.InfoContext(ctx, "reload queued",
		slog.String("reference", tx.Reference),
		slog.String("network", string(tx.Network)),
		slog.Int("amount", tx.Amount),
		slog.Int("queue_position", position),
	)

	return &EnqueueOutput{
		Reference:     tx.Reference,
		Status:        string(tx.Status),
		QueuePosition: position,
	}, nil
}

// claimReference redraws the reference of tx until neither the queue nor
// the journal knows it.
func (uc *EnqueueReloadUseCase) claimReference(ctx context.Context, tx *entity.Transaction) error {
	for i := 0; i < maxReferenceDraws; i++ {
		if !uc.referenceInUse(ctx, tx.Reference) {
			return nil
		}
		uc.logger.WarnContext(ctx, "reference already in use, drawing another",
			slog.String("reference", tx.Reference),
		)
		tx.Reference = entity.NewReference()
	}
	return apperrors.Unexpected(apperrors.WithError(ErrReferenceInUse))
}

func (uc *EnqueueReloadUseCase) referenceInUse(ctx context.Context, reference string) bool {
	if _, ok := uc.queue.Lookup(reference); ok {
		return true
	}
	attempts, err := journalAttempts(ctx, uc.journal, reference, uc.logger)
	return err == nil && len(attempts) > 0
}

func (uc *EnqueueReloadUseCase) release(ctx context.Context, key, reference string) {
	if key == "" || uc.idempotency == nil {
		return
	}
	if err := uc.idempotency.Release(ctx, key); err != nil {
		uc.logger.ErrorContext(ctx, "failed to release idempotency key",
			slog.String("reference", reference),
			slog.String("error", err.Error()),
		)
	}
}

// replay reports the transaction a reused idempotency key points to. The key
// may outlive the in-memory history, so the journal is consulted next.
func (uc *EnqueueReloadUseCase) replay(ctx context.Context, reference string) *EnqueueOutput {
	out := &EnqueueOutput{Reference: reference, Status: StatusUnknown, Idempotent: true}
	if tx, ok := uc.queue.Lookup(reference); ok {
		out.Status = string(tx.Status)
		out.QueuePosition = positionOf(uc.queue, reference)
	} else if attempts, _ := journalAttempts(ctx, uc.journal, reference, uc.logger); len(attempts) > 0 {
		out.Status = string(attempts[len(attempts)-1].Transaction.Status)
	}
	uc.logger.InfoContext(ctx, "idempotent reload replayed",
		slog.String("reference", reference),
		slog.String("status", out.Status),
	)
	return out
}

// journalAttempts reads the attempts of reference, logging and returning
// the error when the journal cannot be read.
func journalAttempts(ctx context.Context, journal ports.AttemptJournal, reference string, logger *slog.Logger) ([]*entity.Attempt, error) {
	if journal == nil {
		return nil, nil
	}
	attempts, err := journal.FindByReference(ctx, reference)
	if err != nil {
		logger.WarnContext(ctx, "failed to read attempt journal",
			slog.String("reference", reference),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return attempts, nil
}

// positionOf returns the 1-based position of reference in the queue, or 0
// when it is not waiting.
func positionOf(q ports.TransactionQueue, reference string) int {
	for i, tx := range q.Snapshot() {
		if tx.Reference == reference {
			return i + 1
		}
	}
	return 0
}

func isValidation(err error) bool {
	return errors.Is(err, apperrors.ErrValidation)
}
