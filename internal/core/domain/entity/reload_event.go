package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventReloadSucceeded      = "reload.succeeded"
	EventReloadRetryScheduled = "reload.retry_scheduled"
	EventReloadFailed         = "reload.failed"
)

type ReloadEvent struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	Reference        string    `json:"reference"`
	SubscriberNumber string    `json:"msisdn"`
	PromoCode        string    `json:"promo"`
	Amount           int       `json:"amount"`
	Network          NetworkID `json:"network"`
	Status           string    `json:"status"`
	RetryCount       int       `json:"retry_count"`
	LastError        string    `json:"last_error,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func NewReloadEvent(eventType string, tx Transaction) *ReloadEvent {
	return &ReloadEvent{
		ID:               uuid.NewString(),
		Type:             eventType,
		Reference:        tx.Reference,
		SubscriberNumber: tx.SubscriberNumber,
		PromoCode:        tx.PromoCode,
		Amount:           tx.Amount,
		Network:          tx.Network,
		Status:           string(tx.Status),
		RetryCount:       tx.RetryCount,
		LastError:        tx.LastError,
		OccurredAt:       time.Now().UTC(),
	}
}

type QueueStats struct {
	QueueSize      int `json:"queue_size"`
	Capacity       int `json:"capacity"`
	TotalSucceeded int `json:"total_succeeded"`
	TotalFailed    int `json:"total_failed"`
}
