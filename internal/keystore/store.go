// Package keystore persists API key account records. It provides a clean
// abstraction implemented by a JSON snapshot file (the default), an in-memory
// map, SQLite, and PostgreSQL.
package keystore

import (
	"context"
	"errors"
	"time"

	"mediagate/internal/models"
)

// ErrNotFound is returned when the requested key does not exist in the store.
var ErrNotFound = errors.New("api key not found")

// ErrProtected is returned when a mutation targets the master key record,
// which can never be deleted or deactivated.
var ErrProtected = errors.New("master key is protected")

// Store defines the key store contract. Implementations must serialize
// mutations so a snapshot write never observes a half-applied update.
type Store interface {
	// Get retrieves the record for a raw key. Returns ErrNotFound when absent.
	Get(ctx context.Context, key string) (*models.APIKey, error)

	// Put inserts or overwrites a record and persists the change.
	Put(ctx context.Context, record *models.APIKey) error

	// Delete removes a record. Returns ErrNotFound when absent and
	// ErrProtected when the record is the master key.
	Delete(ctx context.Context, key string) error

	// ToggleActive flips a record's active flag and persists the change,
	// returning the new state. Same error taxonomy as Delete.
	ToggleActive(ctx context.Context, key string) (bool, error)

	// List returns all records. Order is not specified.
	List(ctx context.Context) ([]*models.APIKey, error)

	// Touch records a successful admission against a key: the total request
	// counter increments and the last-used timestamp updates.
	Touch(ctx context.Context, key string, at time.Time) error

	// EnsureMaster synthesizes the master record for the configured secret if
	// no record carries the master owner yet. Idempotent.
	EnsureMaster(ctx context.Context, masterKey string) error

	// Close flushes any un-persisted state and releases resources.
	Close() error
}
