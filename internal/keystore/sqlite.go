package keystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mediagate/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS api_keys (
	key                 TEXT PRIMARY KEY,
	owner               TEXT NOT NULL,
	requests_per_minute INTEGER NOT NULL,
	is_active           INTEGER NOT NULL,
	total_requests      INTEGER NOT NULL DEFAULT 0,
	created_at          TEXT NOT NULL,
	last_used           TEXT
);`

// SQLiteStore implements Store on a local SQLite database. Unlike the JSON
// backend, every mutation including Touch is a row write.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary initializes) a SQLite key store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required for the sqlite keystore")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func scanSQLiteKey(row interface{ Scan(...any) error }) (*models.APIKey, error) {
	var record models.APIKey
	var active int
	var lastUsed sql.NullString
	if err := row.Scan(&record.Key, &record.Owner, &record.RequestsPerMinute,
		&active, &record.TotalRequests, &record.CreatedAt, &lastUsed); err != nil {
		return nil, err
	}
	record.Active = active != 0
	if lastUsed.Valid {
		record.LastUsed = &lastUsed.String
	}
	return &record, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*models.APIKey, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, owner, requests_per_minute, is_active, total_requests, created_at, last_used
		 FROM api_keys WHERE key = ?`, key)
	record, err := scanSQLiteKey(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return record, nil
}

func (s *SQLiteStore) Put(ctx context.Context, record *models.APIKey) error {
	var lastUsed sql.NullString
	if record.LastUsed != nil {
		lastUsed = sql.NullString{String: *record.LastUsed, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (key, owner, requests_per_minute, is_active, total_requests, created_at, last_used)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			owner = excluded.owner,
			requests_per_minute = excluded.requests_per_minute,
			is_active = excluded.is_active,
			total_requests = excluded.total_requests,
			created_at = excluded.created_at,
			last_used = excluded.last_used`,
		record.Key, record.Owner, record.RequestsPerMinute, boolToInt(record.Active),
		record.TotalRequests, record.CreatedAt, lastUsed)
	if err != nil {
		return fmt.Errorf("failed to put key: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	record, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if record.IsMaster() {
		return ErrProtected
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ToggleActive(ctx context.Context, key string) (bool, error) {
	record, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if record.IsMaster() {
		return false, ErrProtected
	}
	newState := !record.Active
	if _, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = ? WHERE key = ?`, boolToInt(newState), key); err != nil {
		return false, fmt.Errorf("failed to toggle key: %w", err)
	}
	return newState, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, owner, requests_per_minute, is_active, total_requests, created_at, last_used
		 FROM api_keys`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var records []*models.APIKey
	for rows.Next() {
		record, err := scanSQLiteKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Touch(ctx context.Context, key string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET total_requests = total_requests + 1, last_used = ? WHERE key = ?`,
		at.UTC().Format(time.RFC3339), key)
	if err != nil {
		return fmt.Errorf("failed to touch key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) EnsureMaster(ctx context.Context, masterKey string) error {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM api_keys WHERE owner = ?`, models.MasterOwner).Scan(&count); err != nil {
		return fmt.Errorf("failed to check for master key: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.Put(ctx, models.NewMasterKey(masterKey))
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
