package compliance

import (
	"fmt"
	"regexp"
)

// Built-in patterns for identifying content in generated text. Pattern-based
// redaction is inherently best-effort: these catch common identifier shapes, not
// every possible mention of a person.
var (
	// emailPattern matches email address formats.
	emailPattern = regexp.MustCompile(`(?i)[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// phonePattern matches international and common local phone number formats.
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)

	// urlPattern matches http(s) URLs, which frequently embed usernames or hosts.
	urlPattern = regexp.MustCompile(`(?i)https?://[^\s]+`)

	// handlePattern matches @-style social media handles.
	handlePattern = regexp.MustCompile(`@[A-Za-z0-9_]{2,}`)
)

// RedactionPlaceholder is substituted for every redacted match.
const RedactionPlaceholder = "[redacted]"

// Anonymizer redacts content substrings matching identifying patterns. It applies
// the built-in pattern set plus any extra patterns supplied from configuration
// (typically personal names the user has asked to scrub).
type Anonymizer struct {
	patterns []*regexp.Regexp
}

// NewAnonymizer creates an Anonymizer from the built-in pattern set plus the given
// extra patterns. Extra patterns are compiled as case-insensitive regular
// expressions; an invalid pattern fails construction.
func NewAnonymizer(extraPatterns []string) (*Anonymizer, error) {
	patterns := []*regexp.Regexp{emailPattern, phonePattern, urlPattern, handlePattern}

	for _, p := range extraPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid anonymize pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	return &Anonymizer{patterns: patterns}, nil
}

// Redact replaces every pattern match in the text with the redaction placeholder.
func (a *Anonymizer) Redact(text string) string {
	for _, re := range a.patterns {
		text = re.ReplaceAllString(text, RedactionPlaceholder)
	}
	return text
}
