// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"endflow/internal/models"
)

const (
	// ExcerptLength is the default excerpt length in characters.
	ExcerptLength = 160

	// FallbackExcerpt is shown when a post has neither an excerpt nor body text.
	FallbackExcerpt = "Read more to discover insights..."

	// ellipsis marks a truncated excerpt.
	ellipsis = "..."

	// wordsPerMinute is the reading speed used for reading-time estimates.
	wordsPerMinute = 200
)

// markdownRules strip formatting markers in order. Bold runs before italic so
// "**x**" is not read as two empty italics.
var markdownRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`__(.*?)__`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile(`_(.*?)_`), "$1"},
	{regexp.MustCompile(`(?m)^[ \t]*#{1,6}\s+`), ""},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile("`([^`]+)`"), "$1"},
	{regexp.MustCompile(`~~(.*?)~~`), "$1"},
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanMarkdown removes bold, italic, header, link, inline code and
// strikethrough markers, then collapses whitespace. Text without markers
// only has its whitespace collapsed.
//
// Removing one marker can expose another (a "#" left at the start of the
// text once a link or leading space is gone), so the rules are re-applied
// until the text stops changing. Every pass that changes the text shortens
// it, so the loop ends.
func CleanMarkdown(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	for {
		next := cleanPass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanPass(s string) string {
	s = strings.TrimSpace(s)
	for _, r := range markdownRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// PlainText concatenates the span text of every text block. Spans within a
// block are joined directly, blocks are separated by a single space. Image
// and code blocks contribute nothing.
func PlainText(blocks []models.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Type != models.BlockTypeText {
			continue
		}
		var sb strings.Builder
		for _, span := range b.Children {
			if span.Type == models.SpanTypeText {
				sb.WriteString(span.Text)
			}
		}
		parts = append(parts, sb.String())
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// DeriveExcerpt returns the authored excerpt with markdown removed, or plain
// text from the body when no usable excerpt exists. Text longer than
// maxLength characters is cut at maxLength and suffixed with "...". When both
// sources are empty the fixed FallbackExcerpt is returned.
//
// Feeding the result back in as an authored excerpt returns it unchanged.
func DeriveExcerpt(excerpt string, body []models.Block, maxLength int) string {
	if maxLength <= 0 {
		maxLength = ExcerptLength
	}

	text := CleanMarkdown(excerpt)
	if text == "" {
		text = CleanMarkdown(PlainText(body))
	}
	if text == "" {
		return FallbackExcerpt
	}
	return truncate(text, maxLength)
}

// truncate cuts s to n runes plus an ellipsis. Applied to its own output it
// yields the same string, since the first n runes are unchanged.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + ellipsis
}

// ReadingTime estimates minutes to read the body at 200 words per minute,
// rounded up. Bodies with any text take at least one minute; empty bodies
// take zero.
func ReadingTime(blocks []models.Block) int {
	words := len(strings.Fields(PlainText(blocks)))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}
