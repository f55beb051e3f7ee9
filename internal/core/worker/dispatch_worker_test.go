package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
	apperrors "reload-gateway/internal/core/errors"
	"reload-gateway/internal/core/queue"
	"reload-gateway/internal/core/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockRouter struct {
	resolveFn func(ctx context.Context, network entity.NetworkID) (ports.ChannelHandle, error)
}

func (m *mockRouter) Resolve(ctx context.Context, network entity.NetworkID) (ports.ChannelHandle, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, network)
	}
	return ports.ChannelHandle{Network: network, Slot: 0, Available: true}, nil
}

type mockExecutor struct {
	executeFn func(ctx context.Context, tx entity.Transaction, handle ports.ChannelHandle) error
}

func (m *mockExecutor) ExecuteReload(ctx context.Context, tx entity.Transaction, handle ports.ChannelHandle) error {
	if m.executeFn != nil {
		return m.executeFn(ctx, tx, handle)
	}
	return nil
}

type mockJournal struct {
	mu           sync.Mutex
	begun        []*entity.Attempt
	finished     []*entity.Attempt
	unfinishedFn func(ctx context.Context) ([]*entity.Attempt, error)
}

func (m *mockJournal) Begin(_ context.Context, a *entity.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.begun = append(m.begun, &cp)
	return nil
}

func (m *mockJournal) Finish(_ context.Context, a *entity.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.finished = append(m.finished, &cp)
	return nil
}

func (m *mockJournal) FindUnfinished(ctx context.Context) ([]*entity.Attempt, error) {
	if m.unfinishedFn != nil {
		return m.unfinishedFn(ctx)
	}
	return nil, nil
}

func (m *mockJournal) FindByReference(_ context.Context, _ string) ([]*entity.Attempt, error) {
	return nil, nil
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []*entity.ReloadEvent
	err    error
}

func (m *mockEventPublisher) Publish(_ context.Context, event *entity.ReloadEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockEventPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	queue     *queue.Queue
	router    *mockRouter
	executor  *mockExecutor
	journal   *mockJournal
	publisher *mockEventPublisher
	sessions  atomic.Int32
	worker    *worker.DispatchWorker
}

func newFixture(interval time.Duration) *fixture {
	f := &fixture{
		queue:     queue.New(100, 0),
		router:    &mockRouter{},
		executor:  &mockExecutor{},
		journal:   &mockJournal{},
		publisher: &mockEventPublisher{},
	}
	f.worker = worker.NewDispatchWorker(
		f.queue,
		f.router,
		func() worker.Executor {
			f.sessions.Add(1)
			return f.executor
		},
		f.journal,
		f.publisher,
		worker.Config{Interval: interval, RetryLimit: 3},
		testLogger(),
	)
	return f
}

func enqueue(t *testing.T, q *queue.Queue, msisdn, promo string, amount int) *entity.Transaction {
	t.Helper()
	tx, err := entity.NewTransaction(entity.ReloadInput{
		SubscriberNumber: msisdn,
		PromoCode:        promo,
		Amount:           amount,
	}, entity.DefaultRules())
	if err != nil {
		t.Fatalf("new transaction: %v", err)
	}
	if !q.Enqueue(tx) {
		t.Fatal("enqueue rejected")
	}
	return tx
}

func TestTick_SuccessfulRoundTrip(t *testing.T) {
	f := newFixture(time.Hour)
	tx := enqueue(t, f.queue, "09171234567", "GIGA99", 99)

	var gotHandle ports.ChannelHandle
	f.executor.executeFn = func(ctx context.Context, got entity.Transaction, handle ports.ChannelHandle) error {
		gotHandle = handle
		if got.Status != entity.StatusProcessing {
			t.Errorf("expected PROCESSING during execution, got %s", got.Status)
		}
		return nil
	}

	if !f.worker.Tick(context.Background()) {
		t.Fatal("expected an attempt to run")
	}

	rec, ok := f.queue.Lookup(tx.Reference)
	if !ok {
		t.Fatal("expected transaction in history")
	}
	if rec.Status != entity.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", rec.Status)
	}
	if rec.RetryCount != 0 {
		t.Fatalf("expected retry count 0, got %d", rec.RetryCount)
	}
	if gotHandle.Network != entity.NetworkSmart {
		t.Fatalf("expected SMART channel, got %s", gotHandle.Network)
	}

	stats := f.queue.Stats()
	if stats.TotalSucceeded != 1 || stats.TotalFailed != 0 || stats.QueueSize != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if got := f.publisher.types(); len(got) != 1 || got[0] != entity.EventReloadSucceeded {
		t.Fatalf("expected one succeeded event, got %v", got)
	}
	if len(f.journal.begun) != 1 || len(f.journal.finished) != 1 {
		t.Fatalf("expected attempt journaled once, got begin=%d finish=%d", len(f.journal.begun), len(f.journal.finished))
	}
	if f.journal.finished[0].Outcome != entity.AttemptSucceeded {
		t.Fatalf("expected SUCCEEDED attempt, got %s", f.journal.finished[0].Outcome)
	}
	if f.journal.finished[0].Channel != "SMART/slot0" {
		t.Fatalf("expected channel recorded, got %q", f.journal.finished[0].Channel)
	}
}

func TestTick_RoutingFailureExhaustsRetries(t *testing.T) {
	f := newFixture(time.Hour)
	f.router.resolveFn = func(ctx context.Context, network entity.NetworkID) (ports.ChannelHandle, error) {
		return ports.ChannelHandle{}, fmt.Errorf("%w: network %s", apperrors.ErrRouting, network)
	}
	tx := enqueue(t, f.queue, "09171234567", "GIGA99", 99)

	for i := 1; i <= 3; i++ {
		if !f.worker.Tick(context.Background()) {
			t.Fatalf("tick %d: expected an attempt", i)
		}
		rec, _ := f.queue.Lookup(tx.Reference)
		if rec.RetryCount != i {
			t.Fatalf("tick %d: expected retry count %d, got %d", i, i, rec.RetryCount)
		}
	}

	rec, _ := f.queue.Lookup(tx.Reference)
	if rec.Status != entity.StatusFailed {
		t.Fatalf("expected FAILED, got %s", rec.Status)
	}
	if !strings.Contains(rec.LastError, apperrors.ErrRetryExhausted.Error()) {
		t.Fatalf("expected exhausted error, got %q", rec.LastError)
	}
	if f.queue.Stats().TotalFailed != 1 {
		t.Fatalf("expected failure counter 1, got %d", f.queue.Stats().TotalFailed)
	}
	if f.sessions.Load() != 0 {
		t.Fatalf("expected no session for unroutable transaction, got %d", f.sessions.Load())
	}
	if f.worker.Tick(context.Background()) {
		t.Fatal("failed transaction must not be retried again")
	}

	want := []string{entity.EventReloadRetryScheduled, entity.EventReloadRetryScheduled, entity.EventReloadFailed}
	got := f.publisher.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestTick_FailedAttemptGoesToTail(t *testing.T) {
	f := newFixture(time.Hour)
	first := enqueue(t, f.queue, "09171111111", "GIGA99", 99)
	second := enqueue(t, f.queue, "09172222222", "GIGA99", 99)

	f.executor.executeFn = func(ctx context.Context, tx entity.Transaction, _ ports.ChannelHandle) error {
		if tx.Reference == first.Reference {
			return fmt.Errorf("%w: insufficient balance", apperrors.ErrActuationFailure)
		}
		return nil
	}

	f.worker.Tick(context.Background())

	snap := f.queue.Snapshot()
	if len(snap) != 2 || snap[0].Reference != second.Reference || snap[1].Reference != first.Reference {
		t.Fatalf("expected failed transaction behind the other one, got %+v", snap)
	}
	if snap[1].Status != entity.StatusQueued || snap[1].RetryCount != 1 {
		t.Fatalf("unexpected requeued record %+v", snap[1])
	}
}

func TestTick_TimeoutRecordedAsTimedOut(t *testing.T) {
	f := newFixture(time.Hour)
	enqueue(t, f.queue, "09171234567", "GIGA99", 99)
	f.executor.executeFn = func(ctx context.Context, tx entity.Transaction, _ ports.ChannelHandle) error {
		return fmt.Errorf("%w: no terminal text", apperrors.ErrActuationTimeout)
	}

	f.worker.Tick(context.Background())

	if f.journal.finished[0].Outcome != entity.AttemptTimedOut {
		t.Fatalf("expected TIMED_OUT attempt, got %s", f.journal.finished[0].Outcome)
	}
}

func TestTick_EmptyQueue(t *testing.T) {
	f := newFixture(time.Hour)

	if f.worker.Tick(context.Background()) {
		t.Fatal("expected no attempt on empty queue")
	}
	if len(f.publisher.types()) != 0 {
		t.Fatal("expected no events")
	}
}

func TestTick_AtMostOneSessionInFlight(t *testing.T) {
	f := newFixture(time.Hour)
	for i := 0; i < 10; i++ {
		enqueue(t, f.queue, fmt.Sprintf("091700000%02d", i), "GIGA99", 99)
	}

	var active, maxActive atomic.Int32
	f.executor.executeFn = func(ctx context.Context, tx entity.Transaction, _ ports.ChannelHandle) error {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return nil
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				f.worker.Tick(context.Background())
			}
		}()
	}

	// Producers keep enqueueing while the worker runs.
	for i := 10; i < 20; i++ {
		enqueue(t, f.queue, fmt.Sprintf("091700000%02d", i), "GIGA99", 99)
	}
	wg.Wait()
	for f.worker.Tick(context.Background()) {
	}

	if maxActive.Load() != 1 {
		t.Fatalf("expected at most one active session, saw %d", maxActive.Load())
	}
	if got := f.queue.Stats().TotalSucceeded; got != 20 {
		t.Fatalf("expected 20 successes, got %d", got)
	}
}

func TestTick_RecoversFromPanic(t *testing.T) {
	f := newFixture(time.Hour)
	tx := enqueue(t, f.queue, "09171234567", "GIGA99", 99)
	f.executor.executeFn = func(ctx context.Context, _ entity.Transaction, _ ports.ChannelHandle) error {
		panic("modem driver crashed")
	}

	f.worker.Tick(context.Background())

	rec, _ := f.queue.Lookup(tx.Reference)
	if rec.Status != entity.StatusQueued || rec.RetryCount != 1 {
		t.Fatalf("expected panic to count as a failed attempt, got %+v", rec)
	}
}

func TestTick_ShutdownLeavesTransactionProcessing(t *testing.T) {
	f := newFixture(time.Hour)
	tx := enqueue(t, f.queue, "09171234567", "GIGA99", 99)

	ctx, cancel := context.WithCancel(context.Background())
	f.executor.executeFn = func(ctx context.Context, _ entity.Transaction, _ ports.ChannelHandle) error {
		cancel()
		return fmt.Errorf("%w: context canceled", apperrors.ErrInterrupted)
	}

	f.worker.Tick(ctx)

	rec, _ := f.queue.Lookup(tx.Reference)
	if rec.Status != entity.StatusProcessing {
		t.Fatalf("expected PROCESSING after shutdown, got %s", rec.Status)
	}
	if len(f.journal.finished) != 0 {
		t.Fatal("interrupted attempt must stay unfinished in the journal")
	}
	if f.queue.Size() != 0 {
		t.Fatal("interrupted attempt must not be requeued in memory")
	}
}

func TestTick_RequeueRejectedWhenQueueFilledUp(t *testing.T) {
	q := queue.New(1, 0)
	journal := &mockJournal{}
	publisher := &mockEventPublisher{}
	tx := enqueue(t, q, "09171234567", "GIGA99", 99)

	exec := &mockExecutor{
		executeFn: func(ctx context.Context, _ entity.Transaction, _ ports.ChannelHandle) error {
			enqueue(t, q, "09179999999", "GIGA99", 99)
			return fmt.Errorf("%w: error", apperrors.ErrActuationFailure)
		},
	}
	w := worker.NewDispatchWorker(q, &mockRouter{}, func() worker.Executor { return exec }, journal, publisher,
		worker.Config{Interval: time.Hour, RetryLimit: 3}, testLogger())

	w.Tick(context.Background())

	rec, _ := q.Lookup(tx.Reference)
	if rec.Status != entity.StatusFailed {
		t.Fatalf("expected FAILED when requeue is rejected, got %s", rec.Status)
	}
	if !strings.Contains(rec.LastError, apperrors.ErrCapacity.Error()) {
		t.Fatalf("expected capacity reason, got %q", rec.LastError)
	}
	if q.Stats().TotalFailed != 1 {
		t.Fatal("expected failure counter to be incremented")
	}
}

func TestTick_PublishErrorDoesNotBreakLoop(t *testing.T) {
	f := newFixture(time.Hour)
	f.publisher.err = errors.New("broker unavailable")
	tx := enqueue(t, f.queue, "09171234567", "GIGA99", 99)

	f.worker.Tick(context.Background())

	rec, _ := f.queue.Lookup(tx.Reference)
	if rec.Status != entity.StatusSuccess {
		t.Fatalf("expected SUCCESS despite publish error, got %s", rec.Status)
	}
}

func TestRun_TicksImmediately(t *testing.T) {
	f := newFixture(time.Hour)
	tx := enqueue(t, f.queue, "09171234567", "GIGA99", 99)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	f.worker.Run(ctx)

	rec, _ := f.queue.Lookup(tx.Reference)
	if rec.Status != entity.StatusSuccess {
		t.Fatalf("expected first tick before the interval elapsed, got %s", rec.Status)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	f := newFixture(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		f.worker.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestReconcile_RequeuesOrFailsInterruptedAttempts(t *testing.T) {
	f := newFixture(time.Hour)

	fresh, _ := entity.NewTransaction(entity.ReloadInput{SubscriberNumber: "09171111111", PromoCode: "GIGA99", Amount: 99}, entity.DefaultRules())
	_ = fresh.MarkProcessing()

	tired, _ := entity.NewTransaction(entity.ReloadInput{SubscriberNumber: "09172222222", PromoCode: "GIGA99", Amount: 99}, entity.DefaultRules())
	tired.RetryCount = 2
	_ = tired.MarkProcessing()

	f.journal.unfinishedFn = func(ctx context.Context) ([]*entity.Attempt, error) {
		return []*entity.Attempt{entity.NewAttempt(*fresh), entity.NewAttempt(*tired)}, nil
	}

	n, err := f.worker.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 reconciled attempts, got %d", n)
	}

	requeued, ok := f.queue.PeekNext()
	if !ok || requeued.Reference != fresh.Reference || requeued.RetryCount != 1 {
		t.Fatalf("expected fresh transaction requeued with retry 1, got %+v", requeued)
	}

	failed, _ := f.queue.Lookup(tired.Reference)
	if failed.Status != entity.StatusFailed || failed.RetryCount != 3 {
		t.Fatalf("expected exhausted transaction FAILED with retry 3, got %+v", failed)
	}
	if f.queue.Stats().TotalFailed != 1 {
		t.Fatalf("expected failure counter 1, got %d", f.queue.Stats().TotalFailed)
	}
	for _, a := range f.journal.finished {
		if a.Outcome != entity.AttemptInterrupted {
			t.Fatalf("expected INTERRUPTED outcome, got %s", a.Outcome)
		}
	}
}
