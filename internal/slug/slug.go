// Package slug derives URL-safe slugs and disambiguates collisions with a
// numeric suffix (base, base-1, base-2, ...).
package slug

import (
	"fmt"
	"strings"
	"unicode"
)

// Make lowercases the input and collapses every run of non-alphanumeric
// characters into a single hyphen.
func Make(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Unique returns the first candidate slug not already taken according to
// exists. The first candidate is the base itself, then base-1, base-2, etc.
func Unique(base string, exists func(candidate string) (bool, error)) (string, error) {
	if base == "" {
		base = "item"
	}
	candidate := base
	for counter := 1; ; counter++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}
