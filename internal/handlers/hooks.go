package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// WebhookSecretHeader carries the shared secret on content store webhooks.
const WebhookSecretHeader = "X-Webhook-Secret"

// ContentInvalidator drops cached content store results.
// *cache.ContentCache satisfies it.
type ContentInvalidator interface {
	InvalidateAll(ctx context.Context) int
}

// InvalidationLogger records cache invalidations. *store.CacheLogStore
// satisfies it.
type InvalidationLogger interface {
	Log(ctx context.Context, entityType, entityID, action string, deleted int)
}

// Hooks receives change notifications from the content store.
type Hooks struct {
	cache  ContentInvalidator
	log    InvalidationLogger
	secret string
}

// NewHooks creates a new Hooks handler group. log may be nil. An empty
// secret disables the webhook.
func NewHooks(cache ContentInvalidator, log InvalidationLogger, secret string) *Hooks {
	return &Hooks{cache: cache, log: log, secret: secret}
}

// contentChange is the projection the content store webhook is configured
// to send.
type contentChange struct {
	ID        string `json:"_id"`
	Type      string `json:"_type"`
	Operation string `json:"operation"`
	Slug      *struct {
		Current string `json:"current"`
	} `json:"slug"`
}

// ContentChanged clears the content cache after a document is created,
// updated or deleted in the content store. Any cached query could include
// the changed document, so the whole cache is dropped.
func (h *Hooks) ContentChanged(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	got := r.Header.Get(WebhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		slog.Warn("content webhook rejected", "ip", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	// Webhook projections may carry extra fields, so unknown ones are allowed.
	var change contentChange
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if change.Type == "" {
		change.Type = "unknown"
	}
	if change.Operation == "" {
		change.Operation = "update"
	}

	ctx := r.Context()
	deleted := 0
	if h.cache != nil {
		deleted = h.cache.InvalidateAll(ctx)
	}
	if h.log != nil {
		h.log.Log(ctx, change.Type, change.ID, change.Operation, deleted)
	}

	var slug string
	if change.Slug != nil {
		slug = change.Slug.Current
	}
	slog.Info("content cache invalidated",
		"entity_type", change.Type,
		"entity_id", change.ID,
		"slug", slug,
		"operation", change.Operation,
		"deleted", deleted,
	)
	writeJSON(w, http.StatusOK, map[string]any{"invalidated": deleted})
}
