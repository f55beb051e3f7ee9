package ports

import "context"

type IdempotencyStore interface {
	// Reserve binds key to reference unless the key is already bound, in which
	// case it returns the existing reference and false.
	Reserve(ctx context.Context, key, reference string) (string, bool, error)
	Release(ctx context.Context, key string) error
}
