// Package memory provides an in-memory store.RecordStore.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/points-engine/source"
	"github.com/warp/points-engine/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[string][]store.StoredRecord
	now     func() time.Time
}

var _ store.RecordStore = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		records: make(map[string][]store.StoredRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Append adds records after any existing ones. All or nothing.
func (m *Memory) Append(_ context.Context, customerID string, records ...source.Record) ([]store.StoredRecord, error) {
	if err := store.ValidateBatch(customerID, records); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.records[customerID]
	seq := int64(len(existing))
	created := m.now()

	out := make([]store.StoredRecord, len(records))
	for i, r := range records {
		seq++
		out[i] = store.StoredRecord{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			Seq:        seq,
			Record:     r,
			CreatedAt:  created,
		}
	}
	m.records[customerID] = append(existing, out...)

	result := make([]store.StoredRecord, len(out))
	copy(result, out)
	return result, nil
}

func (m *Memory) Load(_ context.Context, customerID string) ([]store.StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs, ok := m.records[customerID]
	if !ok || len(recs) == 0 {
		return nil, store.ErrCustomerNotFound
	}
	result := make([]store.StoredRecord, len(recs))
	copy(result, recs)
	return result, nil
}

func (m *Memory) Customers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id, recs := range m.records {
		if len(recs) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) Reset(_ context.Context, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.records[customerID]) == 0 {
		return store.ErrCustomerNotFound
	}
	delete(m.records, customerID)
	return nil
}
