package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
	apperrors "reload-gateway/internal/core/errors"
)

type State string

const (
	StateIdle                 State = "IDLE"
	StateDialing              State = "DIALING"
	StateAwaitingMenu         State = "AWAITING_MENU"
	StateSendingStep          State = "SENDING_STEP"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateAwaitingResult       State = "AWAITING_RESULT"
	StateSucceeded            State = "SUCCEEDED"
	StateFailed               State = "FAILED"
	StateTimedOut             State = "TIMED_OUT"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

const (
	DefaultStepDelay = 2 * time.Second
	DefaultTimeout   = 60 * time.Second

	closeTimeout = 5 * time.Second
)

var ErrSessionReused = errors.New("session already executed")

type Transition struct {
	From State
	To   State
	Step int
	At   time.Time
}

type Config struct {
	StepDelay  time.Duration
	Timeout    time.Duration
	Flows      Flows
	Classifier *Classifier
}

// Session runs a single reload attempt through the menu dialog of one
// channel. Create a new Session for every attempt.
type Session struct {
	actuator ports.Actuator
	cfg      Config
	logger   *slog.Logger

	mu           sync.Mutex
	used         bool
	state        State
	step         int
	reference    string
	terminalText string
	transitions  []Transition
}

func New(actuator ports.Actuator, cfg Config, logger *slog.Logger) *Session {
	if cfg.StepDelay < 0 {
		cfg.StepDelay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Flows == nil {
		cfg.Flows = DefaultFlows()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewClassifier(nil, nil)
	}
	return &Session{
		actuator: actuator,
		cfg:      cfg,
		logger:   logger,
		state:    StateIdle,
	}
}

// ExecuteReload drives tx through the channel behind handle. It returns nil
// only when the dialog ended in a success message. Other outcomes wrap
// ErrActuationFailure or ErrActuationTimeout.
func (s *Session) ExecuteReload(ctx context.Context, tx entity.Transaction, handle ports.ChannelHandle) error {
	s.mu.Lock()
	if s.used {
		s.mu.Unlock()
		return ErrSessionReused
	}
	s.used = true
	s.reference = tx.Reference
	s.mu.Unlock()
	defer s.Cleanup()

	flow, ok := s.cfg.Flows.For(tx.Network)
	if !ok {
		s.transition(ctx, StateFailed, 0)
		return fmt.Errorf("%w: no menu flow for network %s", apperrors.ErrActuationFailure, tx.Network)
	}
	steps := flow.Render(tx)

	sessCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	s.transition(ctx, StateDialing, 0)
	channel, err := s.actuator.OpenChannel(sessCtx, handle, flow.ShortCode)
	if err != nil {
		return s.abort(ctx, fmt.Errorf("open %s: %w", handle, err))
	}
	defer s.closeChannel(ctx, channel)

	s.transition(ctx, StateAwaitingMenu, 0)
	if err := s.pause(sessCtx); err != nil {
		return s.abort(ctx, fmt.Errorf("await menu: %w", err))
	}

	for i, step := range steps {
		next := StateSendingStep
		if step.Kind == StepConfirmation {
			next = StateAwaitingConfirmation
		}
		s.transition(ctx, next, i+1)

		if err := s.actuator.SendStep(sessCtx, channel, step.Value); err != nil {
			return s.abort(ctx, fmt.Errorf("send step %d: %w", i+1, err))
		}
		if err := s.pause(sessCtx); err != nil {
			return s.abort(ctx, fmt.Errorf("after step %d: %w", i+1, err))
		}
	}

	s.transition(ctx, StateAwaitingResult, 0)
	remaining := s.cfg.Timeout
	if deadline, ok := sessCtx.Deadline(); ok {
		remaining = time.Until(deadline)
	}
	text, err := s.actuator.AwaitTerminalText(sessCtx, channel, remaining)
	if err != nil {
		return s.abort(ctx, fmt.Errorf("await result: %w", err))
	}

	s.mu.Lock()
	s.terminalText = text
	s.mu.Unlock()

	switch s.cfg.Classifier.Classify(text) {
	case VerdictSuccess:
		s.transition(ctx, StateSucceeded, 0)
		return nil
	case VerdictFailure:
		s.transition(ctx, StateFailed, 0)
		return fmt.Errorf("%w: channel reported %q", apperrors.ErrActuationFailure, text)
	default:
		s.transition(ctx, StateFailed, 0)
		return fmt.Errorf("%w: ambiguous result %q", apperrors.ErrActuationFailure, text)
	}
}

// abort moves the session to its terminal failure state. Cancellation by the
// caller counts as an interruption; running out of session time or result
// text counts as a timeout.
func (s *Session) abort(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		s.transition(ctx, StateFailed, 0)
		return fmt.Errorf("%w: %v", apperrors.ErrInterrupted, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ports.ErrNoTerminalText):
		s.transition(ctx, StateTimedOut, 0)
		return fmt.Errorf("%w: %v", apperrors.ErrActuationTimeout, err)
	default:
		s.transition(ctx, StateFailed, 0)
		return fmt.Errorf("%w: %v", apperrors.ErrActuationFailure, err)
	}
}

func (s *Session) pause(ctx context.Context) error {
	if s.cfg.StepDelay == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.cfg.StepDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Session) closeChannel(ctx context.Context, channel ports.ChannelSession) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()

	if err := s.actuator.CloseChannel(closeCtx, channel); err != nil {
		s.logger.WarnContext(ctx, "failed to close channel",
			slog.String("channel", channel.Handle.String()),
			slog.String("session_id", channel.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Session) transition(ctx context.Context, to State, step int) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.step = step
	s.transitions = append(s.transitions, Transition{From: from, To: to, Step: step, At: time.Now().UTC()})
	ref := s.reference
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "session transition",
		slog.String("reference", ref),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.Int("step", step),
	)
}

// Cleanup drops per-transaction data. State and transitions are kept.
func (s *Session) Cleanup() {
	s.mu.Lock()
	s.reference = ""
	s.terminalText = ""
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Reference() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference
}

func (s *Session) Transitions() []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transition, len(s.transitions))
	copy(out, s.transitions)
	return out
}
