package ports

import "reload-gateway/internal/core/domain/entity"

type TransactionQueue interface {
	Enqueue(tx *entity.Transaction) bool
	DequeueNext() (entity.Transaction, bool)
	Size() int
	Capacity() int
	Snapshot() []entity.Transaction
	Track(tx entity.Transaction)
	Lookup(reference string) (entity.Transaction, bool)
	RecordSuccess()
	RecordFailure()
	Stats() entity.QueueStats
}
