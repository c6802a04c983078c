package keystore

import (
	"context"
	"sync"
	"time"

	"mediagate/internal/models"
)

// MemoryStore is a non-persistent Store for tests and development. It is the
// in-memory half of the JSON store, without the snapshot file.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.APIKey
}

// NewMemoryStore creates an empty in-memory key store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.APIKey)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*models.APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (m *MemoryStore) Put(ctx context.Context, record *models.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *record
	m.records[record.Key] = &cp
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}
	if record.IsMaster() {
		return ErrProtected
	}
	delete(m.records, key)
	return nil
}

func (m *MemoryStore) ToggleActive(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[key]
	if !ok {
		return false, ErrNotFound
	}
	if record.IsMaster() {
		return false, ErrProtected
	}
	record.Active = !record.Active
	return record.Active, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*models.APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*models.APIKey, 0, len(m.records))
	for _, record := range m.records {
		cp := *record
		records = append(records, &cp)
	}
	return records, nil
}

func (m *MemoryStore) Touch(ctx context.Context, key string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}
	record.Touch(at)
	return nil
}

func (m *MemoryStore) EnsureMaster(ctx context.Context, masterKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.IsMaster() {
			return nil
		}
	}
	m.records[masterKey] = models.NewMasterKey(masterKey)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
