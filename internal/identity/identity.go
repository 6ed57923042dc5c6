// Package identity checks the format of PAN-style identity tokens.
// Only the structure is verified: five letters, four digits, one letter.
package identity

import (
	"regexp"
	"strings"
)

var (
	panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	panInText  = regexp.MustCompile(`(?i)\b[a-z]{5}[0-9]{4}[a-z]\b`)
)

// Normalize trims surrounding whitespace and uppercases the token.
func Normalize(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

// Valid reports whether token, once normalized, has the PAN structure.
func Valid(token string) bool {
	return panPattern.MatchString(Normalize(token))
}

// Mask hides the letters of a token, keeping the digits for reference:
// "ABCDE1234F" becomes "XXXXX1234X". Tokens that are not valid are masked entirely.
func Mask(token string) string {
	n := Normalize(token)
	if !panPattern.MatchString(n) {
		return strings.Repeat("X", len([]rune(n)))
	}
	return "XXXXX" + n[5:9] + "X"
}

// Redact masks every PAN-shaped token found in free text.
func Redact(text string) string {
	return panInText.ReplaceAllStringFunc(text, Mask)
}
