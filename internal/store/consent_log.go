// consent_log.go keeps an append-only audit trail of consent decisions.
// Client addresses are never stored in clear; they are reduced to a keyed
// BLAKE2b hash so repeat decisions from one address can be correlated
// without retaining the address itself.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/blake2b"

	"endflow/internal/models"
)

// ConsentLogStore handles consent audit log operations.
type ConsentLogStore struct {
	db  *sql.DB
	key []byte
}

// NewConsentLogStore creates a ConsentLogStore. hashKey keys the client IP
// hash; keys longer than BLAKE2b accepts are compressed first.
func NewConsentLogStore(db *sql.DB, hashKey string) *ConsentLogStore {
	key := []byte(hashKey)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	return &ConsentLogStore{db: db, key: key}
}

// ConsentRecord is one logged consent decision.
type ConsentRecord struct {
	ID          int64
	VisitorID   string
	Method      models.ConsentMethod
	Preferences models.ConsentPreferences
	IPHash      string
	UserAgent   string
}

// HashIP returns the keyed hash of a client address, or "" for an empty
// address.
func (s *ConsentLogStore) HashIP(ip string) string {
	if ip == "" {
		return ""
	}
	h, err := blake2b.New256(s.key)
	if err != nil {
		// Unreachable: the key length is bounded in NewConsentLogStore.
		return ""
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

// Record appends a decision to the log. The decision time is taken from
// prefs.DecidedAt, falling back to the current time.
func (s *ConsentLogStore) Record(ctx context.Context, visitorID string, method models.ConsentMethod, prefs models.ConsentPreferences, ip, userAgent string) error {
	decidedAt := prefs.DecidedAt
	if decidedAt.IsZero() {
		decidedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consent_log (visitor_id, method, necessary, analytics, marketing,
		                         personalization, ip_hash, user_agent, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, visitorID, string(method), prefs.Necessary, prefs.Analytics, prefs.Marketing,
		prefs.Personalization, s.HashIP(ip), userAgent, decidedAt)
	if err != nil {
		return fmt.Errorf("record consent: %w", err)
	}

	slog.Debug("consent decision logged", "visitor", visitorID, "method", method)
	return nil
}

// History returns a visitor's logged decisions, newest first.
func (s *ConsentLogStore) History(ctx context.Context, visitorID string, limit int) ([]ConsentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, visitor_id, method, necessary, analytics, marketing,
		       personalization, ip_hash, user_agent, decided_at
		FROM consent_log
		WHERE visitor_id = $1
		ORDER BY decided_at DESC, id DESC
		LIMIT $2
	`, visitorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query consent log: %w", err)
	}
	defer rows.Close()

	var records []ConsentRecord
	for rows.Next() {
		var r ConsentRecord
		var method string
		if err := rows.Scan(
			&r.ID, &r.VisitorID, &method,
			&r.Preferences.Necessary, &r.Preferences.Analytics, &r.Preferences.Marketing,
			&r.Preferences.Personalization, &r.IPHash, &r.UserAgent, &r.Preferences.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("scan consent log: %w", err)
		}
		r.Method = models.ConsentMethod(method)
		records = append(records, r)
	}
	return records, rows.Err()
}
