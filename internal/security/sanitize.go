package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans free text before it is stored
type Sanitizer interface {
	Clean(text string) string
}

// NopSanitizer only trims surrounding whitespace
type NopSanitizer struct{}

func (NopSanitizer) Clean(text string) string {
	return strings.TrimSpace(text)
}

// StrictSanitizer strips every HTML element from text
type StrictSanitizer struct {
	policy *bluemonday.Policy
}

func NewStrictSanitizer() *StrictSanitizer {
	return &StrictSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *StrictSanitizer) Clean(text string) string {
	// bluemonday escapes entities in what it keeps; stored text is unescaped
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

// NewSanitizer returns a StrictSanitizer when enabled and a NopSanitizer otherwise
func NewSanitizer(enabled bool) Sanitizer {
	if enabled {
		return NewStrictSanitizer()
	}
	return NopSanitizer{}
}
