package keystore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mediagate/internal/models"
)

// JSONStore implements Store with an in-memory map snapshotted to a JSON file.
// The snapshot maps raw key to full record and is rewritten in full, under the
// single writer lock, on every mutating call. Admission side effects (Touch)
// stay in memory and are flushed by Close on graceful shutdown, keeping the
// hot path off the disk.
type JSONStore struct {
	filePath string

	mu      sync.RWMutex
	records map[string]*models.APIKey
}

// NewJSONStore creates a JSON-file-backed key store, loading the existing
// snapshot if one is present. A snapshot that cannot be parsed is logged and
// treated as an empty store, never a fatal startup error.
func NewJSONStore(filePath string) (*JSONStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("path is required for the json keystore")
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create keystore directory: %w", err)
		}
	}

	s := &JSONStore{
		filePath: filePath,
		records:  make(map[string]*models.APIKey),
	}
	s.load()
	return s, nil
}

// load reads the snapshot file into memory. Missing and malformed files both
// leave the store empty.
func (s *JSONStore) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Could not read key snapshot, starting with an empty key store",
				"path", s.filePath, "error", err)
		}
		return
	}

	var records map[string]*models.APIKey
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("Could not parse key snapshot, starting with an empty key store",
			"path", s.filePath, "error", err)
		return
	}
	s.records = records
}

// save rewrites the whole snapshot. Callers must hold the write lock.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key snapshot: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write key snapshot: %w", err)
	}
	return nil
}

func (s *JSONStore) Get(ctx context.Context, key string) (*models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *JSONStore) Put(ctx context.Context, record *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	s.records[record.Key] = &cp
	return s.save()
}

func (s *JSONStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return ErrNotFound
	}
	if record.IsMaster() {
		return ErrProtected
	}
	delete(s.records, key)
	return s.save()
}

func (s *JSONStore) ToggleActive(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return false, ErrNotFound
	}
	if record.IsMaster() {
		return false, ErrProtected
	}
	record.Active = !record.Active
	if err := s.save(); err != nil {
		return record.Active, err
	}
	return record.Active, nil
}

func (s *JSONStore) List(ctx context.Context) ([]*models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*models.APIKey, 0, len(s.records))
	for _, record := range s.records {
		cp := *record
		records = append(records, &cp)
	}
	return records, nil
}

// Touch updates usage counters in memory only. Writing the snapshot on every
// admission would put file I/O on the request path; the counters are flushed
// on Close instead.
func (s *JSONStore) Touch(ctx context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return ErrNotFound
	}
	record.Touch(at)
	return nil
}

func (s *JSONStore) EnsureMaster(ctx context.Context, masterKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.IsMaster() {
			return nil
		}
	}
	s.records[masterKey] = models.NewMasterKey(masterKey)
	return s.save()
}

// Close writes a final snapshot so usage counters survive a restart.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}
