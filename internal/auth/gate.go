// Package auth makes the admission decision for inbound requests by composing
// the key store with the rate limiter, and authorizes privileged operations
// against the configured master credential.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"mediagate/internal/keystore"
	"mediagate/internal/models"
	"mediagate/internal/ratelimit"
)

// Status is the outcome of an admission check.
type Status int

const (
	// StatusAdmitted means the key is valid, active, and within quota.
	StatusAdmitted Status = iota
	// StatusUnauthorized means the key is absent from the store.
	StatusUnauthorized
	// StatusForbidden means the key exists but is deactivated.
	StatusForbidden
	// StatusThrottled means the key's per-minute quota is exhausted.
	StatusThrottled
)

// Decision carries the admission outcome, the admitted account record, and
// rate information for response headers.
type Decision struct {
	Status   Status
	Record   *models.APIKey
	RateInfo ratelimit.Info
}

// Gate composes the key store and the rate limiter into a single admission
// decision per request. The check order is fixed: existence, then the active
// flag, then quota — callers always observe the most fundamental failure.
type Gate struct {
	store   keystore.Store
	limiter ratelimit.Limiter
	now     func() time.Time
}

// NewGate creates an admission gate over the given store and limiter.
func NewGate(store keystore.Store, limiter ratelimit.Limiter) *Gate {
	return &Gate{
		store:   store,
		limiter: limiter,
		now:     time.Now,
	}
}

// Admit decides whether a request presenting the given key may proceed. On
// admission the account's usage counters are updated as a side effect; denied
// requests leave both the rate window and the counters untouched.
func (g *Gate) Admit(ctx context.Context, key string) Decision {
	record, err := g.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, keystore.ErrNotFound) {
			slog.Error("key lookup failed during admission", "error", err)
		}
		return Decision{Status: StatusUnauthorized}
	}

	if !record.Active {
		return Decision{Status: StatusForbidden, Record: record}
	}

	now := g.now()
	allowed, info := g.limiter.Allow(key, record.RequestsPerMinute, now)
	if !allowed {
		return Decision{Status: StatusThrottled, Record: record, RateInfo: info}
	}

	if err := g.store.Touch(ctx, key, now); err != nil {
		slog.Warn("failed to record key usage", "owner", record.Owner, "error", err)
	}
	record.Touch(now)

	return Decision{Status: StatusAdmitted, Record: record, RateInfo: info}
}

// AdminGate grants access to privileged operations only when the presented
// key equals the configured master key. It never consults key store state and
// never counts against any quota.
type AdminGate struct {
	masterKey string
}

// NewAdminGate creates a gate for the configured master credential.
func NewAdminGate(masterKey string) *AdminGate {
	return &AdminGate{masterKey: masterKey}
}

// Authorize reports whether the presented key is the master key. The compare
// is constant-time.
func (a *AdminGate) Authorize(presented string) bool {
	if a.masterKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(a.masterKey)) == 1
}
