package keystore

import (
	"fmt"

	"mediagate/internal/models"
)

// Factory provides a centralized way to create key store instances based on
// configuration, so backends can be swapped without code changes.
type Factory struct{}

// NewFactory creates a new key store factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a key store based on the provided configuration.
// Supported backends:
//   - json: snapshot file rewritten on every mutation (the default)
//   - memory: in-memory only (for testing/development)
//   - sqlite: local SQLite database
//   - postgres: PostgreSQL database
func (f *Factory) Create(config models.KeystoreConfig) (Store, error) {
	switch config.Type {
	case models.StoreTypeJSON:
		return NewJSONStore(config.Path)
	case models.StoreTypeMemory:
		return NewMemoryStore(), nil
	case models.StoreTypeSQLite:
		return NewSQLiteStore(config.Database.DSN)
	case models.StoreTypePostgres:
		return NewPostgresStore(config.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported keystore type: %s", config.Type)
	}
}

// SupportedTypes returns all supported key store backend types.
func (f *Factory) SupportedTypes() []string {
	return []string{models.StoreTypeJSON, models.StoreTypeMemory, models.StoreTypeSQLite, models.StoreTypePostgres}
}
