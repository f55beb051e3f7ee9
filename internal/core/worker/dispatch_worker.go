package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
	apperrors "reload-gateway/internal/core/errors"
)

const (
	DefaultInterval   = 60 * time.Second
	DefaultRetryLimit = 3

	publishTimeout = 5 * time.Second
	restartReason  = "interrupted by restart"
)

type ChannelResolver interface {
	Resolve(ctx context.Context, network entity.NetworkID) (ports.ChannelHandle, error)
}

type Executor interface {
	ExecuteReload(ctx context.Context, tx entity.Transaction, handle ports.ChannelHandle) error
}

// SessionFactory returns a fresh executor for every attempt.
type SessionFactory func() Executor

type Config struct {
	Interval   time.Duration
	RetryLimit int
}

// DispatchWorker pulls one transaction per tick and runs it to an outcome.
// At most one attempt is in flight per worker, and one worker runs per
// process.
type DispatchWorker struct {
	queue      ports.TransactionQueue
	router     ChannelResolver
	newSession SessionFactory
	journal    ports.AttemptJournal
	publisher  ports.EventPublisher
	interval   time.Duration
	retryLimit int
	logger     *slog.Logger

	inFlight sync.Mutex
	busy     atomic.Bool
}

func NewDispatchWorker(
	queue ports.TransactionQueue,
	router ChannelResolver,
	newSession SessionFactory,
	journal ports.AttemptJournal,
	publisher ports.EventPublisher,
	cfg Config,
	logger *slog.Logger,
) *DispatchWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = DefaultRetryLimit
	}
	return &DispatchWorker{
		queue:      queue,
		router:     router,
		newSession: newSession,
		journal:    journal,
		publisher:  publisher,
		interval:   cfg.Interval,
		retryLimit: cfg.RetryLimit,
		logger:     logger,
	}
}

// Run ticks once immediately and then on every interval until ctx is done.
func (w *DispatchWorker) Run(ctx context.Context) {
	w.logger.InfoContext(ctx, "dispatch worker started",
		slog.Duration("interval", w.interval),
		slog.Int("retry_limit", w.retryLimit),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "dispatch worker stopped")
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick dispatches the head of the queue, if any. It reports whether an
// attempt ran.
func (w *DispatchWorker) Tick(ctx context.Context) bool {
	if !w.inFlight.TryLock() {
		w.logger.DebugContext(ctx, "dispatch skipped, attempt in flight")
		return false
	}
	defer w.inFlight.Unlock()
	defer func() { queueDepth.Set(float64(w.queue.Size())) }()

	if ctx.Err() != nil {
		return false
	}
	tx, ok := w.queue.DequeueNext()
	if !ok {
		return false
	}

	w.busy.Store(true)
	dispatchInFlight.Set(1)
	defer func() {
		w.busy.Store(false)
		dispatchInFlight.Set(0)
	}()

	w.dispatch(ctx, tx)
	return true
}

// Busy reports whether an attempt is running right now.
func (w *DispatchWorker) Busy() bool {
	return w.busy.Load()
}

func (w *DispatchWorker) dispatch(ctx context.Context, tx entity.Transaction) {
	if err := tx.MarkProcessing(); err != nil {
		w.logger.ErrorContext(ctx, "dequeued transaction in unexpected state",
			slog.String("reference", tx.Reference),
			slog.String("status", string(tx.Status)),
			slog.String("error", err.Error()),
		)
		return
	}
	w.queue.Track(tx)

	attempt := entity.NewAttempt(tx)
	if err := w.journal.Begin(ctx, attempt); err != nil {
		w.logger.ErrorContext(ctx, "failed to journal attempt start",
			slog.String("reference", tx.Reference),
			slog.String("error", err.Error()),
		)
	}

	w.logger.InfoContext(ctx, "dispatching transaction",
		slog.String("reference", tx.Reference),
		slog.String("network", string(tx.Network)),
		slog.Int("attempt", attempt.Number),
	)

	start := time.Now()
	err := w.execute(ctx, tx, attempt)
	dispatchAttemptDuration.WithLabelValues(string(tx.Network)).Observe(time.Since(start).Seconds())

	if err != nil && ctx.Err() != nil {
		// Left PROCESSING on purpose; startup reconciliation settles it.
		dispatchAttemptsTotal.WithLabelValues(string(tx.Network), "interrupted").Inc()
		w.logger.WarnContext(ctx, "attempt interrupted by shutdown",
			slog.String("reference", tx.Reference),
			slog.String("error", err.Error()),
		)
		return
	}

	var eventType string
	outcome := entity.AttemptSucceeded
	errText := ""

	if err == nil {
		if markErr := tx.MarkSucceeded(); markErr != nil {
			w.logger.ErrorContext(ctx, "failed to mark transaction succeeded",
				slog.String("reference", tx.Reference),
				slog.String("error", markErr.Error()),
			)
		}
		w.queue.RecordSuccess()
		transactionsSettledTotal.WithLabelValues(string(entity.StatusSuccess)).Inc()
		eventType = entity.EventReloadSucceeded

		w.logger.InfoContext(ctx, "transaction succeeded",
			slog.String("reference", tx.Reference),
			slog.Int("retry_count", tx.RetryCount),
		)
	} else {
		outcome = entity.AttemptFailed
		if errors.Is(err, apperrors.ErrActuationTimeout) {
			outcome = entity.AttemptTimedOut
		}
		errText = err.Error()
		eventType = w.settleFailure(ctx, &tx, err)
	}
	dispatchAttemptsTotal.WithLabelValues(string(tx.Network), string(outcome)).Inc()

	w.queue.Track(tx)
	attempt.Finish(outcome, tx, errText)
	if jErr := w.journal.Finish(ctx, attempt); jErr != nil {
		w.logger.ErrorContext(ctx, "failed to journal attempt result",
			slog.String("reference", tx.Reference),
			slog.String("error", jErr.Error()),
		)
	}
	w.publish(ctx, eventType, tx)
}

func (w *DispatchWorker) execute(ctx context.Context, tx entity.Transaction, attempt *entity.Attempt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", apperrors.ErrActuationFailure, r)
		}
	}()

	handle, err := w.router.Resolve(ctx, tx.Network)
	if err != nil {
		return err
	}
	attempt.Channel = handle.String()

	return w.newSession().ExecuteReload(ctx, tx, handle)
}

// settleFailure applies the retry policy to a failed attempt and returns the
// event type describing the result.
func (w *DispatchWorker) settleFailure(ctx context.Context, tx *entity.Transaction, cause error) string {
	requeue, err := tx.MarkAttemptFailed(cause.Error(), w.retryLimit)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to record attempt failure",
			slog.String("reference", tx.Reference),
			slog.String("error", err.Error()),
		)
		return entity.EventReloadFailed
	}

	if requeue {
		if w.queue.Enqueue(tx) {
			w.logger.WarnContext(ctx, "attempt failed, transaction requeued",
				slog.String("reference", tx.Reference),
				slog.Int("retry_count", tx.RetryCount),
				slog.String("error", cause.Error()),
			)
			return entity.EventReloadRetryScheduled
		}
		_ = tx.Fail(fmt.Errorf("requeue rejected: %w; last error: %v", apperrors.ErrCapacity, cause).Error())
	} else {
		tx.LastError = fmt.Errorf("%w: %v", apperrors.ErrRetryExhausted, cause).Error()
	}

	w.queue.RecordFailure()
	transactionsSettledTotal.WithLabelValues(string(entity.StatusFailed)).Inc()
	w.logger.ErrorContext(ctx, "transaction failed",
		slog.String("reference", tx.Reference),
		slog.Int("retry_count", tx.RetryCount),
		slog.String("error", tx.LastError),
	)
	return entity.EventReloadFailed
}

func (w *DispatchWorker) publish(ctx context.Context, eventType string, tx entity.Transaction) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := entity.NewReloadEvent(eventType, tx)
	if err := w.publisher.Publish(pubCtx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
			slog.String("reference", tx.Reference),
			slog.String("error", err.Error()),
		)
	}
}

// Reconcile settles attempts a previous process left unfinished. Each one
// counts as a failed attempt under the normal retry policy.
func (w *DispatchWorker) Reconcile(ctx context.Context) (int, error) {
	w.inFlight.Lock()
	defer w.inFlight.Unlock()

	attempts, err := w.journal.FindUnfinished(ctx)
	if err != nil {
		return 0, fmt.Errorf("find unfinished attempts: %w", err)
	}

	for i, a := range attempts {
		tx := a.Transaction
		if tx.Status != entity.StatusProcessing {
			tx.Status = entity.StatusProcessing
		}

		eventType := w.settleFailure(ctx, &tx, errors.New(restartReason))
		w.queue.Track(tx)

		a.Finish(entity.AttemptInterrupted, tx, restartReason)
		if err := w.journal.Finish(ctx, a); err != nil {
			return i, fmt.Errorf("finish attempt %s: %w", a.ID, err)
		}
		w.publish(ctx, eventType, tx)
	}

	if len(attempts) > 0 {
		w.logger.InfoContext(ctx, "reconciled interrupted attempts", slog.Int("count", len(attempts)))
	}
	queueDepth.Set(float64(w.queue.Size()))
	return len(attempts), nil
}
