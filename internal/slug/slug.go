// Package slug normalizes free text into URL- and filesystem-safe tokens.
package slug

import (
	"regexp"
	"strings"
)

var (
	separatorRe = regexp.MustCompile(`[\s_]+`)
	invalidRe   = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRunRe = regexp.MustCompile(`-{2,}`)
)

// Make derives a slug from arbitrary text: lowercase, whitespace and
// underscore runs become single hyphens, everything outside [a-z0-9-] is
// stripped, hyphen runs collapse, and edge hyphens are trimmed.
//
// Make never fails; it returns "" when nothing survives (input was only
// punctuation or whitespace). Callers treat an empty slug as invalid input.
func Make(text string) string {
	s := strings.ToLower(text)
	s = separatorRe.ReplaceAllString(s, "-")
	s = invalidRe.ReplaceAllString(s, "")
	s = hyphenRunRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
