package store

import (
	"context"
	"sync"

	"github.com/iliyamo/park-ledger/internal/repository"
)

// Persister is the durable side of the store.  Documents are whole
// snapshots; Load returns repository.ErrNotFound for unknown keys.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, doc []byte) error
}

// MemoryPersister keeps snapshots in process memory.  It backs the
// "memory" storage driver and tests that simulate a restart by opening a
// second Store over the same persister.
type MemoryPersister struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemoryPersister returns an empty MemoryPersister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{docs: map[string][]byte{}}
}

func (m *MemoryPersister) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

func (m *MemoryPersister) Save(_ context.Context, key string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = append([]byte(nil), doc...)
	return nil
}
