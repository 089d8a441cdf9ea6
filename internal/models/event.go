// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// EventCategory classifies a behavioral event.
type EventCategory string

const (
	EventEngagement EventCategory = "engagement"
	EventConversion EventCategory = "conversion"
	EventProduct    EventCategory = "product"
	EventContent    EventCategory = "content"
)

// Valid reports whether c is a known event category.
func (c EventCategory) Valid() bool {
	switch c {
	case EventEngagement, EventConversion, EventProduct, EventContent:
		return true
	}
	return false
}

// Event is a named behavioral event relayed to analytics destinations.
// Properties holds caller metadata merged with the visitor's attribution.
type Event struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Category   EventCategory  `json:"category"`
	Label      string         `json:"label,omitempty"`
	Value      *float64       `json:"value,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`

	// Request context, filled by the HTTP layer.
	VisitorID string `json:"-"`
	PageURL   string `json:"-"`
	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
}
