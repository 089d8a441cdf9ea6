// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"endflow/internal/middleware"
	"endflow/internal/models"
	"endflow/internal/visitor"
)

// ConsentManager reads and records consent decisions. *consent.Manager
// satisfies it.
type ConsentManager interface {
	Current(ctx context.Context, visitorID string) (models.ConsentPreferences, bool, error)
	AcceptAll(ctx context.Context, visitorID string) (models.ConsentPreferences, error)
	AcceptNecessaryOnly(ctx context.Context, visitorID string) (models.ConsentPreferences, error)
	SavePreferences(ctx context.Context, visitorID string, choice models.ConsentChoice) (models.ConsentPreferences, error)
}

// ConsentRecorder appends decisions to the audit log.
// *store.ConsentLogStore satisfies it.
type ConsentRecorder interface {
	Record(ctx context.Context, visitorID string, method models.ConsentMethod, prefs models.ConsentPreferences, ip, userAgent string) error
}

// Consent serves the consent banner and settings dialog.
type Consent struct {
	manager ConsentManager
	log     ConsentRecorder
}

// NewConsent creates a new Consent handler group. log may be nil when no
// database is configured.
func NewConsent(manager ConsentManager, log ConsentRecorder) *Consent {
	return &Consent{manager: manager, log: log}
}

// consentResponse describes the visitor's current state. Undecided visitors
// get the necessary-only defaults and decided=false, which tells the front
// end to show the banner.
type consentResponse struct {
	Decided     bool                      `json:"decided"`
	Preferences models.ConsentPreferences `json:"preferences"`
	DecidedAt   *time.Time                `json:"decidedAt,omitempty"`
}

func newConsentResponse(prefs models.ConsentPreferences, decided bool) consentResponse {
	resp := consentResponse{Decided: decided, Preferences: prefs}
	if decided && !prefs.DecidedAt.IsZero() {
		at := prefs.DecidedAt
		resp.DecidedAt = &at
	}
	return resp
}

// Get returns the visitor's consent state.
func (c *Consent) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := visitor.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "missing visitor identity")
		return
	}

	prefs, decided, err := c.manager.Current(r.Context(), id.VisitorID)
	if err != nil {
		slog.Error("consent lookup failed", "visitor", id.VisitorID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "consent state unavailable")
		return
	}
	if !decided {
		prefs = models.NecessaryOnly()
	}
	w.Header().Set("Cache-Control", noStore)
	writeJSON(w, http.StatusOK, newConsentResponse(prefs, decided))
}

// AcceptAll grants every category.
func (c *Consent) AcceptAll(w http.ResponseWriter, r *http.Request) {
	c.decide(w, r, models.ConsentMethodAcceptAll, func(ctx context.Context, visitorID string) (models.ConsentPreferences, error) {
		return c.manager.AcceptAll(ctx, visitorID)
	})
}

// NecessaryOnly grants only the necessary category.
func (c *Consent) NecessaryOnly(w http.ResponseWriter, r *http.Request) {
	c.decide(w, r, models.ConsentMethodNecessaryOnly, func(ctx context.Context, visitorID string) (models.ConsentPreferences, error) {
		return c.manager.AcceptNecessaryOnly(ctx, visitorID)
	})
}

// Save applies per-category choices from the settings dialog. An attempt to
// turn off the necessary category is ignored.
func (c *Consent) Save(w http.ResponseWriter, r *http.Request) {
	var choice models.ConsentChoice
	if err := decodeJSON(w, r, &choice); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.decide(w, r, models.ConsentMethodCustom, func(ctx context.Context, visitorID string) (models.ConsentPreferences, error) {
		return c.manager.SavePreferences(ctx, visitorID, choice)
	})
}

type decideFunc func(ctx context.Context, visitorID string) (models.ConsentPreferences, error)

func (c *Consent) decide(w http.ResponseWriter, r *http.Request, method models.ConsentMethod, fn decideFunc) {
	ctx := r.Context()
	id, ok := visitor.FromContext(ctx)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing visitor identity")
		return
	}

	prefs, err := fn(ctx, id.VisitorID)
	if err != nil {
		slog.Error("consent decision failed", "visitor", id.VisitorID, "method", method, "error", err)
		writeError(w, http.StatusServiceUnavailable, "consent could not be saved")
		return
	}

	if c.log != nil {
		if err := c.log.Record(ctx, id.VisitorID, method, prefs, middleware.ClientIP(r), r.UserAgent()); err != nil {
			// The decision itself is persisted; the audit entry is best-effort.
			slog.Warn("consent audit log failed", "visitor", id.VisitorID, "error", err)
		}
	}

	w.Header().Set("Cache-Control", noStore)
	writeJSON(w, http.StatusOK, newConsentResponse(prefs, true))
}
