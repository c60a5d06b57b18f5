// Package extract pulls an amount and a category out of a free-text message.
package extract

import (
	"strconv"
	"strings"

	"finchat/internal/core"
)

// Amount returns the first whitespace-separated token that is a plain
// decimal number: ASCII digits with at most one dot.
//
//	Amount("I spent 200 on food") -> 200, true
//	Amount("paid 12.50 today")    -> 12.5, true
//	Amount("no numbers here")     -> 0, false
func Amount(text string) (float64, bool) {
	for _, tok := range strings.Fields(text) {
		if !isDecimal(tok) {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

func isDecimal(tok string) bool {
	digits := strings.Replace(tok, ".", "", 1)
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// Category returns the lower-cased first word after the last "for" in text.
// The match is on the substring, so "comfort" counts too.
func Category(text string) string {
	lower := strings.ToLower(text)
	i := strings.LastIndex(lower, "for")
	if i < 0 {
		return core.DefaultCategory
	}
	rest := strings.Fields(lower[i+len("for"):])
	if len(rest) == 0 {
		return core.DefaultCategory
	}
	return rest[0]
}
