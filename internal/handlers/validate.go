package handlers

import (
	"math"
	"net/url"
	"regexp"
	"unicode/utf8"

	"github.com/google/uuid"

	"endflow/internal/tracking"
)

// Validation limits for event payloads.
const (
	maxActionLen      = 64
	maxLabelLen       = 200
	maxProperties     = 32
	maxPropertyKeyLen = 64
	maxURLLen         = 2048
	maxTitleLen       = 300
)

// actionName matches snake_case event names such as "signup_completed".
var actionName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// validateEvent checks an event payload and returns the first error found.
func validateEvent(req eventRequest) string {
	if req.ID != "" {
		if _, err := uuid.Parse(req.ID); err != nil {
			return "Event id must be a UUID."
		}
	}
	if req.Action == "" {
		return "Event action is required."
	}
	if len(req.Action) > maxActionLen || !actionName.MatchString(req.Action) {
		return "Event action must be snake_case (max 64 characters)."
	}
	if _, known := tracking.CategoryOf(req.Action); !known && !req.Category.Valid() {
		return "Custom events need a category: engagement, conversion, product or content."
	}
	if utf8.RuneCountInString(req.Label) > maxLabelLen {
		return "Event label is too long (max 200 characters)."
	}
	if req.Value != nil && (math.IsNaN(*req.Value) || math.IsInf(*req.Value, 0)) {
		return "Event value must be a finite number."
	}
	if len(req.Properties) > maxProperties {
		return "Too many event properties (max 32)."
	}
	for k := range req.Properties {
		if k == "" || len(k) > maxPropertyKeyLen {
			return "Event property names must be 1-64 characters."
		}
	}
	if msg := validatePageURL(req.PageURL, false); msg != "" {
		return msg
	}
	return ""
}

// validatePageview checks a page view payload.
func validatePageview(req pageviewRequest) string {
	if msg := validatePageURL(req.URL, true); msg != "" {
		return msg
	}
	if utf8.RuneCountInString(req.Title) > maxTitleLen {
		return "Page title is too long (max 300 characters)."
	}
	if len(req.Referrer) > maxURLLen {
		return "Referrer is too long (max 2048 characters)."
	}
	return ""
}

func validatePageURL(raw string, required bool) string {
	if raw == "" {
		if required {
			return "Page URL is required."
		}
		return ""
	}
	if len(raw) > maxURLLen {
		return "Page URL is too long (max 2048 characters)."
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "Page URL is malformed."
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "Page URL must use http or https."
	}
	return ""
}
