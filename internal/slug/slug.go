// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug canonicalizes and validates the slugs used to look up public
// content. Lookups with a slug that is not in canonical form are rejected
// before any content store query is made.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen is the longest slug accepted for lookups.
const MaxLen = 200

var (
	// separators become hyphens.
	separators = regexp.MustCompile(`[\s_]+`)
	// disallowed matches anything that isn't a lowercase letter, digit or hyphen.
	disallowed = regexp.MustCompile(`[^a-z0-9-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Canonical returns the canonical slug for s. Diacritics are folded to
// their base letters, whitespace and underscores become hyphens, and
// everything else outside [a-z0-9-] is removed.
// Example: "Café Résumé 2026" → "cafe-resume-2026"
func Canonical(s string) string {
	result := foldMarks(strings.ToLower(strings.TrimSpace(s)))
	result = separators.ReplaceAllString(result, "-")
	result = disallowed.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLen {
		result = strings.TrimRight(result[:MaxLen], "-")
	}
	return result
}

// Valid reports whether s is a non-empty slug already in canonical form.
func Valid(s string) bool {
	return s != "" && len(s) <= MaxLen && Canonical(s) == s
}

// foldMarks strips combining marks after canonical decomposition.
func foldMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
