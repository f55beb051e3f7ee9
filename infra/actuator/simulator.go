package actuator

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"reload-gateway/internal/core/domain/ports"

	"github.com/google/uuid"
)

var subscriberInput = regexp.MustCompile(`^09\d{9}$`)

type SimulatorConfig struct {
	Latency       time.Duration
	SuccessText   string
	FailureText   string
	FailNumbers   []string
	SilentNumbers []string
}

type simSession struct {
	handle ports.ChannelHandle
	code   string
	inputs []string
}

// Simulator stands in for a handset when no device is attached. Every
// session succeeds except for numbers listed as failing, which get the
// failure text, or silent, which never get a reply.
type Simulator struct {
	cfg    SimulatorConfig
	fail   map[string]bool
	silent map[string]bool

	mu       sync.Mutex
	sessions map[string]*simSession
	busy     map[int]string
}

func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.SuccessText == "" {
		cfg.SuccessText = "Load successful. You have reloaded %s."
	}
	if cfg.FailureText == "" {
		cfg.FailureText = "Transaction failed: insufficient balance."
	}
	s := &Simulator{
		cfg:      cfg,
		fail:     make(map[string]bool),
		silent:   make(map[string]bool),
		sessions: make(map[string]*simSession),
		busy:     make(map[int]string),
	}
	for _, n := range cfg.FailNumbers {
		s.fail[n] = true
	}
	for _, n := range cfg.SilentNumbers {
		s.silent[n] = true
	}
	return s
}

func (s *Simulator) OpenChannel(ctx context.Context, handle ports.ChannelHandle, shortCode string) (ports.ChannelSession, error) {
	if err := ctx.Err(); err != nil {
		return ports.ChannelSession{}, err
	}
	if !handle.Available {
		return ports.ChannelSession{}, fmt.Errorf("%w: %s", ports.ErrChannelUnavailable, handle)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, taken := s.busy[handle.Slot]; taken {
		return ports.ChannelSession{}, fmt.Errorf("%w: slot %d held by %s", ports.ErrChannelBusy, handle.Slot, owner)
	}

	id := uuid.NewString()
	s.sessions[id] = &simSession{handle: handle, code: shortCode}
	s.busy[handle.Slot] = id
	return ports.ChannelSession{ID: id, Handle: handle, OpenedAt: time.Now().UTC()}, nil
}

func (s *Simulator) SendStep(ctx context.Context, session ports.ChannelSession, text string) error {
	s.mu.Lock()
	sess, ok := s.sessions[session.ID]
	if ok {
		sess.inputs = append(sess.inputs, text)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s is not open", session.ID)
	}
	return s.sleep(ctx, s.cfg.Latency)
}

func (s *Simulator) AwaitTerminalText(ctx context.Context, session ports.ChannelSession, timeout time.Duration) (string, error) {
	s.mu.Lock()
	sess, ok := s.sessions[session.ID]
	var subscriber string
	if ok {
		for _, in := range sess.inputs {
			if subscriberInput.MatchString(in) {
				subscriber = in
				break
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("session %s is not open", session.ID)
	}

	if s.silent[subscriber] {
		if err := s.sleep(ctx, timeout); err != nil {
			return "", err
		}
		return "", ports.ErrNoTerminalText
	}

	if err := s.sleep(ctx, s.cfg.Latency); err != nil {
		return "", err
	}
	if s.fail[subscriber] {
		return s.cfg.FailureText, nil
	}
	return fmt.Sprintf(s.cfg.SuccessText, subscriber), nil
}

func (s *Simulator) CloseChannel(_ context.Context, session ports.ChannelSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[session.ID]
	if !ok {
		return nil
	}
	delete(s.sessions, session.ID)
	if s.busy[sess.handle.Slot] == session.ID {
		delete(s.busy, sess.handle.Slot)
	}
	return nil
}

// OpenSessions reports how many dialogs are currently open.
func (s *Simulator) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Simulator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
