package keystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediagate/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS api_keys (
	key                 TEXT PRIMARY KEY,
	owner               TEXT NOT NULL,
	requests_per_minute INTEGER NOT NULL,
	is_active           BOOLEAN NOT NULL,
	total_requests      BIGINT NOT NULL DEFAULT 0,
	created_at          TEXT NOT NULL,
	last_used           TEXT
);`

// PostgresStore implements Store on PostgreSQL via a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL key store, initializing the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required for the postgres keystore")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(context.Background(), postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func scanPostgresKey(row pgx.Row) (*models.APIKey, error) {
	var record models.APIKey
	var lastUsed *string
	if err := row.Scan(&record.Key, &record.Owner, &record.RequestsPerMinute,
		&record.Active, &record.TotalRequests, &record.CreatedAt, &lastUsed); err != nil {
		return nil, err
	}
	record.LastUsed = lastUsed
	return &record, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*models.APIKey, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT key, owner, requests_per_minute, is_active, total_requests, created_at, last_used
		 FROM api_keys WHERE key = $1`, key)
	record, err := scanPostgresKey(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Put(ctx context.Context, record *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (key, owner, requests_per_minute, is_active, total_requests, created_at, last_used)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (key) DO UPDATE SET
			owner = EXCLUDED.owner,
			requests_per_minute = EXCLUDED.requests_per_minute,
			is_active = EXCLUDED.is_active,
			total_requests = EXCLUDED.total_requests,
			created_at = EXCLUDED.created_at,
			last_used = EXCLUDED.last_used`,
		record.Key, record.Owner, record.RequestsPerMinute, record.Active,
		record.TotalRequests, record.CreatedAt, record.LastUsed)
	if err != nil {
		return fmt.Errorf("failed to put key: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	record, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if record.IsMaster() {
		return ErrProtected
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM api_keys WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ToggleActive(ctx context.Context, key string) (bool, error) {
	record, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if record.IsMaster() {
		return false, ErrProtected
	}
	newState := !record.Active
	if _, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET is_active = $1 WHERE key = $2`, newState, key); err != nil {
		return false, fmt.Errorf("failed to toggle key: %w", err)
	}
	return newState, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, owner, requests_per_minute, is_active, total_requests, created_at, last_used
		 FROM api_keys`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var records []*models.APIKey
	for rows.Next() {
		record, err := scanPostgresKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Touch(ctx context.Context, key string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET total_requests = total_requests + 1, last_used = $1 WHERE key = $2`,
		at.UTC().Format(time.RFC3339), key)
	if err != nil {
		return fmt.Errorf("failed to touch key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) EnsureMaster(ctx context.Context, masterKey string) error {
	var count int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM api_keys WHERE owner = $1`, models.MasterOwner).Scan(&count); err != nil {
		return fmt.Errorf("failed to check for master key: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.Put(ctx, models.NewMasterKey(masterKey))
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
