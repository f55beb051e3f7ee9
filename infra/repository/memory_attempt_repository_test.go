package repository_test

import (
	"context"
	"testing"

	"reload-gateway/infra/repository"
	"reload-gateway/internal/core/domain/entity"
)

func processingTx(t *testing.T, msisdn string) entity.Transaction {
	t.Helper()
	tx, err := entity.NewTransaction(entity.ReloadInput{
		SubscriberNumber: msisdn,
		PromoCode:        "GIGA99",
		Amount:           99,
	}, entity.DefaultRules())
	if err != nil {
		t.Fatalf("new transaction: %v", err)
	}
	if err := tx.MarkProcessing(); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	return *tx
}

func TestMemoryAttemptRepository_BeginFinish(t *testing.T) {
	repo := repository.NewMemoryAttemptRepository()
	ctx := context.Background()

	tx := processingTx(t, "09171234567")
	a := entity.NewAttempt(tx)
	if err := repo.Begin(ctx, a); err != nil {
		t.Fatalf("begin: %v", err)
	}

	unfinished, _ := repo.FindUnfinished(ctx)
	if len(unfinished) != 1 || unfinished[0].ID != a.ID {
		t.Fatalf("expected one unfinished attempt, got %+v", unfinished)
	}

	_ = tx.MarkSucceeded()
	a.Finish(entity.AttemptSucceeded, tx, "")
	if err := repo.Finish(ctx, a); err != nil {
		t.Fatalf("finish: %v", err)
	}

	unfinished, _ = repo.FindUnfinished(ctx)
	if len(unfinished) != 0 {
		t.Fatalf("expected no unfinished attempts, got %d", len(unfinished))
	}

	history, _ := repo.FindByReference(ctx, tx.Reference)
	if len(history) != 1 || history[0].Outcome != entity.AttemptSucceeded {
		t.Fatalf("unexpected history %+v", history)
	}
	if history[0].Transaction.Status != entity.StatusSuccess {
		t.Fatalf("expected stored transaction SUCCESS, got %s", history[0].Transaction.Status)
	}
}

func TestMemoryAttemptRepository_Errors(t *testing.T) {
	repo := repository.NewMemoryAttemptRepository()
	ctx := context.Background()
	a := entity.NewAttempt(processingTx(t, "09171234567"))

	if err := repo.Finish(ctx, a); err == nil {
		t.Fatal("expected error finishing an unknown attempt")
	}
	_ = repo.Begin(ctx, a)
	if err := repo.Begin(ctx, a); err == nil {
		t.Fatal("expected error journaling the same attempt twice")
	}
}

func TestMemoryAttemptRepository_ReturnsCopies(t *testing.T) {
	repo := repository.NewMemoryAttemptRepository()
	ctx := context.Background()
	a := entity.NewAttempt(processingTx(t, "09171234567"))
	_ = repo.Begin(ctx, a)

	got, _ := repo.FindByReference(ctx, a.Reference)
	got[0].Channel = "tampered"

	again, _ := repo.FindByReference(ctx, a.Reference)
	if again[0].Channel == "tampered" {
		t.Fatal("repository must not hand out its own storage")
	}
}
