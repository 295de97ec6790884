package frontmatter

import (
	"strconv"
	"strings"
	"time"
)

// encodeScalar writes a string value so the line-oriented reader can always
// recover it exactly. Values that embed newlines, carry edge whitespace, or
// open with a quote are Go-quoted onto a single line; everything else is
// written raw.
func encodeScalar(s string) string {
	if needsQuoting(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuoting(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, "\n\r") {
		return true
	}
	if s[0] == '"' {
		return true
	}
	if s != strings.TrimSpace(s) {
		return true
	}
	return false
}

// decodeScalar reverses encodeScalar. A leading quote means the value was
// Go-quoted on write.
func decodeScalar(raw string) (string, error) {
	if strings.HasPrefix(raw, `"`) {
		return strconv.Unquote(raw)
	}
	return raw, nil
}

func encodeTimestamp(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func decodeTimestamp(raw string) (time.Time, error) {
	return time.Parse(tsLayout, raw)
}
