// Package textutil provides token normalization helpers shared by the
// engine's seed index and the bot's command parsing.
package textutil

import (
	"strings"
	"unicode"
)

// Normalize lower-cases a token.
func Normalize(token string) string {
	return strings.ToLower(token)
}

// TrimDecorations strips leading and trailing non-alphanumeric runes, so
// "One," and "(one)" both reduce to "one".
func TrimDecorations(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Normalizations returns the distinct non-empty normalized forms of a
// token: lower-cased, and lower-cased with decorations trimmed.
func Normalizations(token string) []string {
	lower := Normalize(token)
	if lower == "" {
		return nil
	}
	trimmed := TrimDecorations(lower)
	if trimmed == "" || trimmed == lower {
		return []string{lower}
	}
	return []string{lower, trimmed}
}

var affirmatives = map[string]bool{
	"y":    true,
	"ye":   true,
	"yes":  true,
	"ya":   true,
	"yeah": true,
}

// IsAffirmative reports whether a prompt reply counts as a yes.
func IsAffirmative(text string) bool {
	return affirmatives[strings.ToLower(strings.TrimSpace(text))]
}
