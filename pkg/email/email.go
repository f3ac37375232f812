// Package email holds small helpers for addressing notifications.
package email

import (
	"strings"
	"unicode"
)

// DeriveNameFromEmail builds a display name from an address local part.
// Used as the recipient-name fallback when an application carries no
// preferred name.
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "Applicant", "Applicant"
	}

	first := capitalize(parts[0])
	last := "Applicant"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

// Mask obscures an address for audit notes and logs, keeping the first and
// last character of the local part.
func Mask(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 2 {
		return email
	}
	local := email[:at]
	return local[:1] + "***" + local[len(local)-1:] + email[at:]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
