package repository

import (
	"context"
	"fmt"
	"sync"

	"reload-gateway/internal/core/domain/entity"
)

// MemoryAttemptRepository keeps the journal in process memory. Nothing
// survives a restart, so FindUnfinished only sees the current process.
type MemoryAttemptRepository struct {
	mu       sync.RWMutex
	attempts map[string]entity.Attempt
	order    []string
}

func NewMemoryAttemptRepository() *MemoryAttemptRepository {
	return &MemoryAttemptRepository{attempts: make(map[string]entity.Attempt)}
}

func (r *MemoryAttemptRepository) Begin(_ context.Context, a *entity.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.attempts[a.ID]; exists {
		return fmt.Errorf("attempt %s already journaled", a.ID)
	}
	r.attempts[a.ID] = *a
	r.order = append(r.order, a.ID)
	return nil
}

func (r *MemoryAttemptRepository) Finish(_ context.Context, a *entity.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.attempts[a.ID]; !exists {
		return fmt.Errorf("attempt %s not found", a.ID)
	}
	r.attempts[a.ID] = *a
	return nil
}

func (r *MemoryAttemptRepository) FindUnfinished(_ context.Context) ([]*entity.Attempt, error) {
	return r.collect(func(a entity.Attempt) bool { return !a.IsFinished() }), nil
}

func (r *MemoryAttemptRepository) FindByReference(_ context.Context, reference string) ([]*entity.Attempt, error) {
	return r.collect(func(a entity.Attempt) bool { return a.Reference == reference }), nil
}

func (r *MemoryAttemptRepository) collect(match func(entity.Attempt) bool) []*entity.Attempt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.Attempt
	for _, id := range r.order {
		a := r.attempts[id]
		if match(a) {
			out = append(out, &a)
		}
	}
	return out
}
