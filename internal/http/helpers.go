package http

import (
	"strings"
	"unicode/utf8"
)

// sanitizeInput trims whitespace, drops control characters other than tab,
// newline and carriage return, and replaces invalid UTF-8.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether the request came from htmx rather than a plain form post.
func isHTMX(header interface{ Get(string) string }) bool {
	return header.Get("HX-Request") == "true"
}
