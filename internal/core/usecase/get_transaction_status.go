package usecase

import (
	"context"
	"log/slog"
	"time"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
	apperrors "reload-gateway/internal/core/errors"
)

type (
	AttemptOutput struct {
		Number     int        `json:"number"`
		Channel    string     `json:"channel,omitempty"`
		Outcome    string     `json:"outcome"`
		Error      string     `json:"error,omitempty"`
		StartedAt  time.Time  `json:"started_at"`
		FinishedAt *time.Time `json:"finished_at,omitempty"`
	}

	TransactionOutput struct {
		Reference        string          `json:"reference"`
		SubscriberNumber string          `json:"msisdn"`
		PromoCode        string          `json:"promo"`
		Amount           int             `json:"amount"`
		Network          string          `json:"network"`
		OriginSender     string          `json:"origin_sender,omitempty"`
		Status           string          `json:"status"`
		RetryCount       int             `json:"retry_count"`
		LastError        string          `json:"last_error,omitempty"`
		QueuePosition    int             `json:"queue_position,omitempty"`
		CreatedAt        time.Time       `json:"created_at"`
		UpdatedAt        time.Time       `json:"updated_at"`
		Attempts         []AttemptOutput `json:"attempts,omitempty"`
	}

	GetTransactionStatusUseCase struct {
		queue   ports.TransactionQueue
		journal ports.AttemptJournal
		logger  *slog.Logger
	}
)

func NewGetTransactionStatusUseCase(queue ports.TransactionQueue, journal ports.AttemptJournal, logger *slog.Logger) *GetTransactionStatusUseCase {
	return &GetTransactionStatusUseCase{queue: queue, journal: journal, logger: logger}
}

// Execute reports the live record when the queue still knows the
// transaction and falls back to the journal's latest snapshot otherwise.
func (uc *GetTransactionStatusUseCase) Execute(ctx context.Context, reference string) (*TransactionOutput, error) {
	if reference == "" {
		return nil, apperrors.BadRequest(apperrors.WithMessage("reference is required"))
	}

	attempts, _ := journalAttempts(ctx, uc.journal, reference, uc.logger)

	tx, ok := uc.queue.Lookup(reference)
	if !ok {
		if len(attempts) == 0 {
			return nil, apperrors.NotFound(apperrors.WithMessage("transaction not found"))
		}
		tx = attempts[len(attempts)-1].Transaction
	}

	out := toTransactionOutput(tx)
	out.QueuePosition = positionOf(uc.queue, reference)
	for _, a := range attempts {
		out.Attempts = append(out.Attempts, AttemptOutput{
			Number:     a.Number,
			Channel:    a.Channel,
			Outcome:    string(a.Outcome),
			Error:      a.Error,
			StartedAt:  a.StartedAt,
			FinishedAt: a.FinishedAt,
		})
	}
	return out, nil
}

func toTransactionOutput(tx entity.Transaction) *TransactionOutput {
	return &TransactionOutput{
		Reference:        tx.Reference,
		SubscriberNumber: tx.SubscriberNumber,
		PromoCode:        tx.PromoCode,
		Amount:           tx.Amount,
		Network:          string(tx.Network),
		OriginSender:     tx.OriginSender,
		Status:           string(tx.Status),
		RetryCount:       tx.RetryCount,
		LastError:        tx.LastError,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
}
