// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package consent owns each visitor's tracking consent decision. A visitor
// is undecided until one of the decision operations persists a preference
// set; after that the decision stands until the visitor changes it.
package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"endflow/internal/models"
	"endflow/internal/visitor"
)

// Storage keys for the decision.
const (
	PreferencesKey = "endflow-consent"
	DateKey        = "endflow-consent-date"
)

// Listener is notified after a decision has been persisted.
type Listener func(ctx context.Context, visitorID string, prefs models.ConsentPreferences)

// Manager reads and records consent decisions.
type Manager struct {
	kv  visitor.KV
	now func() time.Time

	mu        sync.RWMutex
	listeners []Listener
}

// NewManager creates a Manager persisting to kv.
func NewManager(kv visitor.KV) *Manager {
	return &Manager{kv: kv, now: time.Now}
}

// Subscribe registers l for every future decision. Listeners run
// synchronously in registration order.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Current returns the visitor's preferences and whether a decision exists.
// Missing or malformed stored data means undecided, in which case only the
// necessary category is granted.
func (m *Manager) Current(ctx context.Context, visitorID string) (models.ConsentPreferences, bool, error) {
	raw, ok, err := m.kv.Get(ctx, visitorID, PreferencesKey)
	if err != nil {
		return models.NecessaryOnly(), false, fmt.Errorf("read consent: %w", err)
	}
	if !ok {
		return models.NecessaryOnly(), false, nil
	}

	var prefs models.ConsentPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		slog.Debug("malformed consent treated as undecided", "visitor", visitorID, "error", err)
		return models.NecessaryOnly(), false, nil
	}
	prefs.Necessary = true

	if date, ok, err := m.kv.Get(ctx, visitorID, DateKey); err == nil && ok {
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			prefs.DecidedAt = t
		}
	}
	return prefs, true, nil
}

// AcceptAll grants every category.
func (m *Manager) AcceptAll(ctx context.Context, visitorID string) (models.ConsentPreferences, error) {
	return m.decide(ctx, visitorID, models.AllConsent())
}

// AcceptNecessaryOnly grants only the necessary category.
func (m *Manager) AcceptNecessaryOnly(ctx context.Context, visitorID string) (models.ConsentPreferences, error) {
	return m.decide(ctx, visitorID, models.NecessaryOnly())
}

// SavePreferences records a per-category choice. A choice to turn the
// necessary category off is ignored.
func (m *Manager) SavePreferences(ctx context.Context, visitorID string, choice models.ConsentChoice) (models.ConsentPreferences, error) {
	return m.decide(ctx, visitorID, choice.Apply())
}

// decide persists prefs with a decision timestamp and notifies listeners.
func (m *Manager) decide(ctx context.Context, visitorID string, prefs models.ConsentPreferences) (models.ConsentPreferences, error) {
	prefs.Necessary = true
	prefs.DecidedAt = m.now().UTC().Truncate(time.Second)

	payload, err := json.Marshal(prefs)
	if err != nil {
		return prefs, fmt.Errorf("encode consent: %w", err)
	}
	if err := m.kv.Set(ctx, visitorID, PreferencesKey, string(payload)); err != nil {
		return prefs, fmt.Errorf("save consent: %w", err)
	}
	if err := m.kv.Set(ctx, visitorID, DateKey, prefs.DecidedAt.Format(time.RFC3339)); err != nil {
		return prefs, fmt.Errorf("save consent date: %w", err)
	}

	slog.Info("consent decided",
		"visitor", visitorID,
		"analytics", prefs.Analytics,
		"marketing", prefs.Marketing,
		"personalization", prefs.Personalization,
	)

	m.mu.RLock()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, visitorID, prefs)
	}
	return prefs, nil
}
