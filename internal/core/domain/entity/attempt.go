package entity

import (
	"time"

	"github.com/google/uuid"
)

type AttemptOutcome string

const (
	AttemptPending     AttemptOutcome = "PENDING"
	AttemptSucceeded   AttemptOutcome = "SUCCEEDED"
	AttemptFailed      AttemptOutcome = "FAILED"
	AttemptTimedOut    AttemptOutcome = "TIMED_OUT"
	AttemptInterrupted AttemptOutcome = "INTERRUPTED"
)

// Attempt is one journaled execution of a transaction against a channel.
// Transaction holds the record as it stood when the attempt began, or after
// it finished once Finish has been called.
type Attempt struct {
	ID          string
	Reference   string
	Number      int
	Channel     string
	Outcome     AttemptOutcome
	Error       string
	Transaction Transaction
	StartedAt   time.Time
	FinishedAt  *time.Time
}

func NewAttempt(tx Transaction) *Attempt {
	return &Attempt{
		ID:          uuid.NewString(),
		Reference:   tx.Reference,
		Number:      tx.RetryCount + 1,
		Outcome:     AttemptPending,
		Transaction: tx,
		StartedAt:   time.Now().UTC(),
	}
}

func (a *Attempt) Finish(outcome AttemptOutcome, tx Transaction, errText string) {
	now := time.Now().UTC()
	a.Outcome = outcome
	a.Error = errText
	a.Transaction = tx
	a.FinishedAt = &now
}

func (a *Attempt) IsFinished() bool {
	return a.FinishedAt != nil
}
