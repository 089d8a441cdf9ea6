// Package attribution captures campaign parameters (utm_*) from landing
// URLs and keeps them per visitor, so later conversions can be credited to
// the campaign that brought the visitor in.
package attribution

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"endflow/internal/models"
	"endflow/internal/visitor"
)

const (
	// StorageKey holds the JSON-encoded parameters for a visitor.
	StorageKey = "endflow_utm"

	// sessionMarkerTTL matches the session idle timeout.
	sessionMarkerTTL = visitor.SessionTTL
)

// FromQuery extracts the five utm_* fields. Values are trimmed.
func FromQuery(q url.Values) models.AttributionParams {
	get := func(k string) string { return strings.TrimSpace(q.Get(k)) }
	return models.AttributionParams{
		Source:   get("utm_source"),
		Medium:   get("utm_medium"),
		Campaign: get("utm_campaign"),
		Term:     get("utm_term"),
		Content:  get("utm_content"),
	}
}

// Capturer persists attribution parameters through a visitor KV.
type Capturer struct {
	kv visitor.KV
}

// New creates a Capturer.
func New(kv visitor.KV) *Capturer {
	return &Capturer{kv: kv}
}

// Capture stores the parameters found in q when at least one is non-empty,
// replacing any earlier value. A query without campaign parameters leaves
// the stored value alone. It reports whether a value was written.
func (c *Capturer) Capture(ctx context.Context, visitorID string, q url.Values) (bool, error) {
	params := FromQuery(q)
	if params.IsEmpty() {
		return false, nil
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return false, fmt.Errorf("encode attribution: %w", err)
	}
	if err := c.kv.Set(ctx, visitorID, StorageKey, string(payload)); err != nil {
		return false, fmt.Errorf("save attribution: %w", err)
	}

	slog.Debug("attribution captured",
		"visitor", visitorID,
		"source", params.Source,
		"campaign", params.Campaign,
	)
	return true, nil
}

// CaptureOnce runs Capture only for the first call within a browsing
// session. Later calls in the same session are no-ops.
func (c *Capturer) CaptureOnce(ctx context.Context, id visitor.Identity, q url.Values) (bool, error) {
	first, err := c.kv.SetNX(ctx, "utm:"+id.SessionID, sessionMarkerTTL+time.Minute)
	if err != nil {
		return false, fmt.Errorf("attribution session marker: %w", err)
	}
	if !first {
		return false, nil
	}
	return c.Capture(ctx, id.VisitorID, q)
}

// Stored returns the visitor's captured parameters and whether any exist.
// A malformed stored value is reported as absent.
func (c *Capturer) Stored(ctx context.Context, visitorID string) (models.AttributionParams, bool, error) {
	raw, ok, err := c.kv.Get(ctx, visitorID, StorageKey)
	if err != nil {
		return models.AttributionParams{}, false, fmt.Errorf("read attribution: %w", err)
	}
	if !ok {
		return models.AttributionParams{}, false, nil
	}

	var params models.AttributionParams
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		slog.Debug("malformed attribution ignored", "visitor", visitorID, "error", err)
		return models.AttributionParams{}, false, nil
	}
	return params, true, nil
}
