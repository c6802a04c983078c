package models

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// MasterOwner is the reserved owner label of the master key record. The
// record carrying it can never be deleted or deactivated.
const MasterOwner = "master"

// DefaultQuotaPerMinute is assigned to generated keys when the admin request
// does not specify one.
const DefaultQuotaPerMinute = 10

// MasterQuotaPerMinute is the generous fixed quota of the synthesized master record.
const MasterQuotaPerMinute = 100

// APIKey is one caller's account record in the key store. The raw key is the
// identity: it is both the map key in the snapshot file and the value callers
// present in the X-API-Key header.
type APIKey struct {
	Key               string  `json:"key"`
	Owner             string  `json:"owner"`
	RequestsPerMinute int     `json:"requests_per_minute"`
	Active            bool    `json:"is_active"`
	TotalRequests     int64   `json:"total_requests"`
	CreatedAt         string  `json:"created_at"`
	LastUsed          *string `json:"last_used,omitempty"`
}

// NewAPIKey creates an active record for a freshly generated key.
func NewAPIKey(rawKey, owner string, requestsPerMinute int) *APIKey {
	return &APIKey{
		Key:               rawKey,
		Owner:             owner,
		RequestsPerMinute: requestsPerMinute,
		Active:            true,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
	}
}

// NewMasterKey builds the distinguished master record for the configured secret.
func NewMasterKey(rawKey string) *APIKey {
	return NewAPIKey(rawKey, MasterOwner, MasterQuotaPerMinute)
}

// IsMaster reports whether this is the protected master record.
func (k *APIKey) IsMaster() bool {
	return k.Owner == MasterOwner
}

// Touch records a successful admission against this key.
func (k *APIKey) Touch(at time.Time) {
	k.TotalRequests++
	used := at.UTC().Format(time.RFC3339)
	k.LastUsed = &used
}

// GenerateAPIKey produces a new random API key in the format ytapi_<43 url-safe base64 chars>.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return "ytapi_" + base64.RawURLEncoding.EncodeToString(b), nil
}
