// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// ConsentCategory classifies the purpose a tracking destination serves.
type ConsentCategory string

const (
	ConsentNecessary       ConsentCategory = "necessary"
	ConsentAnalytics       ConsentCategory = "analytics"
	ConsentMarketing       ConsentCategory = "marketing"
	ConsentPersonalization ConsentCategory = "personalization"
)

// ConsentPreferences is a visitor's cookie/tracking decision. Necessary is
// always true; DecidedAt is persisted separately from the flags.
type ConsentPreferences struct {
	Necessary       bool      `json:"necessary"`
	Analytics       bool      `json:"analytics"`
	Marketing       bool      `json:"marketing"`
	Personalization bool      `json:"personalization"`
	DecidedAt       time.Time `json:"-"`
}

// AllConsent grants every category.
func AllConsent() ConsentPreferences {
	return ConsentPreferences{Necessary: true, Analytics: true, Marketing: true, Personalization: true}
}

// NecessaryOnly grants only the necessary category.
func NecessaryOnly() ConsentPreferences {
	return ConsentPreferences{Necessary: true}
}

// Set changes a single category. Attempts to change Necessary are ignored.
func (p *ConsentPreferences) Set(c ConsentCategory, granted bool) {
	switch c {
	case ConsentAnalytics:
		p.Analytics = granted
	case ConsentMarketing:
		p.Marketing = granted
	case ConsentPersonalization:
		p.Personalization = granted
	}
	p.Necessary = true
}

// Allows reports whether events may flow to a destination in category c.
func (p ConsentPreferences) Allows(c ConsentCategory) bool {
	switch c {
	case ConsentNecessary:
		return true
	case ConsentAnalytics:
		return p.Analytics
	case ConsentMarketing:
		return p.Marketing
	case ConsentPersonalization:
		return p.Personalization
	}
	return false
}

// ConsentChoice is a partial preference update coming from the settings
// dialog. Nil fields leave the category at its default (not granted).
type ConsentChoice struct {
	Necessary       *bool `json:"necessary,omitempty"`
	Analytics       *bool `json:"analytics,omitempty"`
	Marketing       *bool `json:"marketing,omitempty"`
	Personalization *bool `json:"personalization,omitempty"`
}

// Apply returns the preferences described by the choice. Necessary is
// forced on regardless of input.
func (c ConsentChoice) Apply() ConsentPreferences {
	p := NecessaryOnly()
	if c.Analytics != nil {
		p.Set(ConsentAnalytics, *c.Analytics)
	}
	if c.Marketing != nil {
		p.Set(ConsentMarketing, *c.Marketing)
	}
	if c.Personalization != nil {
		p.Set(ConsentPersonalization, *c.Personalization)
	}
	return p
}

// ConsentMethod records which control produced a consent decision.
type ConsentMethod string

const (
	ConsentMethodAcceptAll     ConsentMethod = "accept_all"
	ConsentMethodNecessaryOnly ConsentMethod = "necessary_only"
	ConsentMethodCustom        ConsentMethod = "custom"
)
