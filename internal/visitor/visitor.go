// Package visitor identifies anonymous site visitors and stores small
// per-visitor values (consent decisions, attribution) in Valkey. It is the
// server-side counterpart of browser local storage: values live under one
// hash per visitor with a sliding expiry.
package visitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// VisitorCookie identifies the device across sessions.
	VisitorCookie = "ef_visitor"

	// SessionCookie identifies one browsing session.
	SessionCookie = "ef_session"

	// DefaultTTL is how long an idle visitor's stored values are kept.
	DefaultTTL = 365 * 24 * time.Hour

	// SessionTTL is the idle timeout of a browsing session.
	SessionTTL = 30 * time.Minute

	// keyPrefix namespaces visitor hashes in Valkey.
	keyPrefix = "visitor:"

	// markerPrefix namespaces one-shot markers in Valkey.
	markerPrefix = "marker:"
)

// KV persists string values per visitor and one-shot markers.
type KV interface {
	// Get returns the stored value and whether it exists.
	Get(ctx context.Context, visitorID, key string) (string, bool, error)
	// Set stores value, replacing any previous one.
	Set(ctx context.Context, visitorID, key, value string) error
	// SetNX sets a marker that expires after ttl. It reports true only for
	// the caller that created the marker.
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Store is the Valkey-backed KV.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a visitor store backed by the given Valkey client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client, ttl: DefaultTTL}
}

// Get reads one field of the visitor's hash.
func (s *Store) Get(ctx context.Context, visitorID, key string) (string, bool, error) {
	val, err := s.client.HGet(ctx, keyPrefix+visitorID, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("visitor get: %w", err)
	}
	return val, true, nil
}

// Set writes one field and slides the expiry of the visitor's hash.
func (s *Store) Set(ctx context.Context, visitorID, key, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, keyPrefix+visitorID, key, value)
	pipe.Expire(ctx, keyPrefix+visitorID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("visitor set: %w", err)
	}
	return nil
}

// SetNX creates a marker key with the given TTL.
func (s *Store) SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, markerPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("visitor marker: %w", err)
	}
	return ok, nil
}

// Identity is the pair of identifiers attached to a request.
type Identity struct {
	VisitorID string
	SessionID string
	// NewSession is true when the session cookie was issued by this request.
	NewSession bool
}

// Identify reads the visitor and session cookies, issuing fresh identifiers
// for missing or malformed ones. The session cookie is re-sent on every call
// so its idle timeout slides.
func Identify(w http.ResponseWriter, r *http.Request, secure bool) Identity {
	id := Identity{
		VisitorID: cookieID(r, VisitorCookie),
		SessionID: cookieID(r, SessionCookie),
	}

	if id.VisitorID == "" {
		id.VisitorID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     VisitorCookie,
			Value:    id.VisitorID,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(DefaultTTL.Seconds()),
		})
	}

	if id.SessionID == "" {
		id.SessionID = uuid.NewString()
		id.NewSession = true
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id.SessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL.Seconds()),
	})

	return id
}

// cookieID returns the cookie value if it is a well-formed UUID.
func cookieID(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

type ctxKey struct{}

// WithIdentity stores the identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity set by the visitor middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
