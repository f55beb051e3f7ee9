package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/queue"
	"reload-gateway/internal/core/usecase"
)

func queuedTx(t *testing.T, q *queue.Queue) *entity.Transaction {
	t.Helper()
	tx, err := entity.NewTransaction(entity.ReloadInput{
		SubscriberNumber: "09171234567",
		PromoCode:        "GIGA99",
		Amount:           99,
	}, entity.DefaultRules())
	if err != nil {
		t.Fatalf("new transaction: %v", err)
	}
	if !q.Enqueue(tx) {
		t.Fatal("enqueue rejected")
	}
	return tx
}

func TestGetTransactionStatusUseCase_Queued(t *testing.T) {
	q := queue.New(10, 0)
	tx := queuedTx(t, q)
	uc := usecase.NewGetTransactionStatusUseCase(q, &mockAttemptJournal{}, testLogger())

	out, err := uc.Execute(context.Background(), tx.Reference)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if out.Status != string(entity.StatusQueued) {
		t.Fatalf("expected QUEUED, got %s", out.Status)
	}
	if out.QueuePosition != 1 {
		t.Fatalf("expected queue position 1, got %d", out.QueuePosition)
	}
}

func TestGetTransactionStatusUseCase_IncludesAttempts(t *testing.T) {
	q := queue.New(10, 0)
	tx := queuedTx(t, q)

	attempt := entity.NewAttempt(*tx)
	attempt.Channel = "SMART/slot0"
	attempt.Finish(entity.AttemptFailed, *tx, "insufficient balance")

	journal := &mockAttemptJournal{
		findByReferenceFn: func(_ context.Context, ref string) ([]*entity.Attempt, error) {
			if ref != tx.Reference {
				t.Fatalf("unexpected reference %s", ref)
			}
			return []*entity.Attempt{attempt}, nil
		},
	}
	uc := usecase.NewGetTransactionStatusUseCase(q, journal, testLogger())

	out, err := uc.Execute(context.Background(), tx.Reference)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(out.Attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(out.Attempts))
	}
	if out.Attempts[0].Outcome != string(entity.AttemptFailed) || out.Attempts[0].Channel != "SMART/slot0" {
		t.Fatalf("unexpected attempt %+v", out.Attempts[0])
	}
}

func TestGetTransactionStatusUseCase_FallsBackToJournal(t *testing.T) {
	q := queue.New(10, 0)
	tx := entity.Transaction{
		Reference: "TXN-0000BEEF",
		Status:    entity.StatusSuccess,
		Network:   entity.NetworkGlobe,
	}
	attempt := entity.NewAttempt(tx)
	attempt.Finish(entity.AttemptSucceeded, tx, "")

	journal := &mockAttemptJournal{
		findByReferenceFn: func(context.Context, string) ([]*entity.Attempt, error) {
			return []*entity.Attempt{attempt}, nil
		},
	}
	uc := usecase.NewGetTransactionStatusUseCase(q, journal, testLogger())

	out, err := uc.Execute(context.Background(), "TXN-0000BEEF")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if out.Status != string(entity.StatusSuccess) {
		t.Fatalf("expected SUCCESS from journal, got %s", out.Status)
	}
}

func TestGetTransactionStatusUseCase_NotFound(t *testing.T) {
	uc := usecase.NewGetTransactionStatusUseCase(queue.New(10, 0), &mockAttemptJournal{}, testLogger())

	_, err := uc.Execute(context.Background(), "TXN-UNKNOWN1")

	_ = assertException(t, err, http.StatusNotFound)
}

func TestGetTransactionStatusUseCase_JournalErrorStillAnswers(t *testing.T) {
	q := queue.New(10, 0)
	tx := queuedTx(t, q)
	journal := &mockAttemptJournal{
		findByReferenceFn: func(context.Context, string) ([]*entity.Attempt, error) {
			return nil, errors.New("db error")
		},
	}
	uc := usecase.NewGetTransactionStatusUseCase(q, journal, testLogger())

	out, err := uc.Execute(context.Background(), tx.Reference)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if out.Reference != tx.Reference {
		t.Fatalf("expected reference %s, got %s", tx.Reference, out.Reference)
	}
}
