package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"mediagate/internal/keystore"
	"mediagate/internal/models"
)

// GenerateKey handles POST /admin/keys/generate and mints a new API key.
func (h *Handlers) GenerateKey(w http.ResponseWriter, r *http.Request) {
	var req models.NewAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, err.Error())
		return
	}

	rawKey, err := models.GenerateAPIKey()
	if err != nil {
		slog.Error("failed to generate key material", "error", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "failed to generate API key")
		return
	}

	record := models.NewAPIKey(rawKey, req.Owner, req.RequestsPerMinute)
	if err := h.store.Put(r.Context(), record); err != nil {
		slog.Error("failed to persist generated key", "owner", req.Owner, "error", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "failed to store API key")
		return
	}

	slog.Info("security_audit: API key generated",
		"event", "key_generated",
		"owner", record.Owner,
		"requests_per_minute", record.RequestsPerMinute,
	)
	h.writeJSONResponse(w, http.StatusCreated, record)
}

// ListKeys handles GET /admin/keys. Full key values are included; this
// surface is master-only.
func (h *Handlers) ListKeys(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		slog.Error("failed to list keys", "error", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "failed to list API keys")
		return
	}
	h.writeJSONResponse(w, http.StatusOK, records)
}

// ToggleKey handles PUT /admin/keys/{key}/toggle.
func (h *Handlers) ToggleKey(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	active, err := h.store.ToggleActive(r.Context(), key)
	if err != nil {
		h.writeKeyMutationError(w, err, "toggle")
		return
	}

	record, err := h.store.Get(r.Context(), key)
	if err != nil {
		slog.Error("failed to reload toggled key", "error", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "failed to reload API key")
		return
	}

	state := "inactive"
	if active {
		state = "active"
	}
	slog.Info("security_audit: API key toggled",
		"event", "key_toggled",
		"owner", record.Owner,
		"active", active,
	)
	h.writeJSONResponse(w, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("API key for '%s' is now %s", record.Owner, state),
	})
}

// DeleteKey handles DELETE /admin/keys/{key}.
func (h *Handlers) DeleteKey(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	record, err := h.store.Get(r.Context(), key)
	if err != nil {
		h.writeKeyMutationError(w, err, "delete")
		return
	}

	if err := h.store.Delete(r.Context(), key); err != nil {
		h.writeKeyMutationError(w, err, "delete")
		return
	}

	slog.Info("security_audit: API key deleted",
		"event", "key_deleted",
		"owner", record.Owner,
	)
	h.writeJSONResponse(w, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("API key for '%s' deleted", record.Owner),
	})
}

func (h *Handlers) writeKeyMutationError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, keystore.ErrNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, models.ErrorCodeNotFound, "API key not found")
	case errors.Is(err, keystore.ErrProtected):
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeProtectedKey, "the master API key cannot be modified")
	default:
		slog.Error("key mutation failed", "op", op, "error", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "key store operation failed")
	}
}
