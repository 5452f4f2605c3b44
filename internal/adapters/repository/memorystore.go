package repository

import (
	"context"
	"sync"

	"github.com/okian/badgeboard/internal/domain/model"
)

// MemoryStore is a Store held in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.Badge
}

// NewMemoryStore creates a store seeded with records in append order.
func NewMemoryStore(records ...model.Badge) *MemoryStore {
	return &MemoryStore{records: append([]model.Badge(nil), records...)}
}

// Path implements Store.
func (m *MemoryStore) Path() string { return "memory" }

// ReadAll implements Store.
func (m *MemoryStore) ReadAll(ctx context.Context) ([]model.Badge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]positioned, len(m.records))
	for i, b := range m.records {
		records[i] = positioned{badge: b, line: i}
	}
	return sortNewestFirst(records), nil
}

// Append implements Store.
func (m *MemoryStore) Append(ctx context.Context, b model.Badge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, b)
	return nil
}
