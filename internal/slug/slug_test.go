package slug

import (
	"strings"
	"testing"
)

// TestCanonical exercises canonicalization with typical titles, special
// characters, unicode and boundary conditions.
func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "title with year", input: "Outbound Playbook 2026", want: "outbound-playbook-2026"},
		{name: "already canonical", input: "cold-email-benchmarks", want: "cold-email-benchmarks"},
		{name: "single word", input: "GoLang", want: "golang"},

		// --- Special characters ---
		{name: "punctuation marks", input: "Hello, World! How's it going?", want: "hello-world-hows-it-going"},
		{name: "ampersand and at sign", input: "Sales & Marketing @ Scale", want: "sales-marketing-scale"},
		{name: "slashes removed", input: "B2B/SaaS | GTM", want: "b2bsaas-gtm"},
		{name: "underscores become hyphens", input: "lead_scoring_guide", want: "lead-scoring-guide"},

		// --- Unicode ---
		{name: "french accents folded", input: "Café Résumé", want: "cafe-resume"},
		{name: "german umlauts folded", input: "Über die Brücke", want: "uber-die-brucke"},
		{name: "emoji stripped", input: "Launch 🚀 Day", want: "launch-day"},
		{name: "cjk stripped", input: "Hello 世界", want: "hello"},

		// --- Whitespace ---
		{name: "leading and trailing spaces", input: "  hello world  ", want: "hello-world"},
		{name: "tabs and newlines", input: "hello\tworld\nagain", want: "hello-world-again"},
		{name: "multiple spaces collapsed", input: "hello    world", want: "hello-world"},

		// --- Hyphens ---
		{name: "leading hyphens", input: "---hello", want: "hello"},
		{name: "trailing hyphens", input: "hello---", want: "hello"},
		{name: "hyphens and spaces mixed", input: "  --hello -- world--  ", want: "hello-world"},

		// --- Edge cases ---
		{name: "empty string", input: "", want: ""},
		{name: "only special characters", input: "!@#$%^&*()", want: ""},
		{name: "date-like string", input: "2026-02-25", want: "2026-02-25"},
		{name: "version number", input: "Version 2.0.1", want: "version-201"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonical(tt.input)
			if got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalLength(t *testing.T) {
	got := Canonical(strings.Repeat("ab-", 100))
	if len(got) > MaxLen {
		t.Errorf("length: got %d, want <= %d", len(got), MaxLen)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("trailing hyphen after truncation: %q", got)
	}
}

// TestCanonical_Idempotent verifies that canonicalizing an already canonical
// slug is a no-op.
func TestCanonical_Idempotent(t *testing.T) {
	for _, s := range []string{"hello-world", "my-blog-post-2026", "a", "123"} {
		t.Run(s, func(t *testing.T) {
			if got := Canonical(s); got != s {
				t.Errorf("Canonical(%q) = %q, want %q", s, got, s)
			}
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"hello-world", true},
		{"2026-outbound-report", true},
		{"a", true},
		{"", false},
		{"Hello-World", false},
		{"hello world", false},
		{"hello--world", false},
		{"-hello", false},
		{"hello/../../etc", false},
		{"café", false},
		{strings.Repeat("a", MaxLen), true},
		{strings.Repeat("a", MaxLen+1), false},
	}

	for _, tt := range tests {
		if got := Valid(tt.input); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
