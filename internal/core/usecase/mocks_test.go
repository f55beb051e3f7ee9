package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
	apperrors "reload-gateway/internal/core/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockIdempotencyStore struct {
	reserveFn func(ctx context.Context, key, reference string) (string, bool, error)
	releaseFn func(ctx context.Context, key string) error
}

func (m *mockIdempotencyStore) Reserve(ctx context.Context, key, reference string) (string, bool, error) {
	if m.reserveFn != nil {
		return m.reserveFn(ctx, key, reference)
	}
	return reference, true, nil
}

func (m *mockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.releaseFn != nil {
		return m.releaseFn(ctx, key)
	}
	return nil
}

type mockAttemptJournal struct {
	findByReferenceFn func(ctx context.Context, reference string) ([]*entity.Attempt, error)
}

func (m *mockAttemptJournal) Begin(context.Context, *entity.Attempt) error  { return nil }
func (m *mockAttemptJournal) Finish(context.Context, *entity.Attempt) error { return nil }

func (m *mockAttemptJournal) FindUnfinished(context.Context) ([]*entity.Attempt, error) {
	return nil, nil
}

func (m *mockAttemptJournal) FindByReference(ctx context.Context, reference string) ([]*entity.Attempt, error) {
	if m.findByReferenceFn != nil {
		return m.findByReferenceFn(ctx, reference)
	}
	return nil, nil
}

type stubProvider struct {
	channels []ports.ChannelHandle
	err      error
}

func (p *stubProvider) Channels(context.Context) ([]ports.ChannelHandle, error) {
	return p.channels, p.err
}

type togglingProvider struct {
	stubProvider
	setFn func(ctx context.Context, network entity.NetworkID, available bool) error
}

func (p *togglingProvider) SetAvailable(ctx context.Context, network entity.NetworkID, available bool) error {
	return p.setFn(ctx, network, available)
}

func assertException(t *testing.T, err error, expectedCode int) *apperrors.Exception {
	t.Helper()
	var exc *apperrors.Exception
	if !errors.As(err, &exc) {
		t.Fatalf("expected *apperrors.Exception, got: %T (%v)", err, err)
	}
	if exc.Code != expectedCode {
		t.Fatalf("expected code %d, got %d", expectedCode, exc.Code)
	}
	return exc
}
