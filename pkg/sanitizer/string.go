package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims s and collapses every inner whitespace run to a
// single space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeIdentifier(id string) string {
	return strings.TrimSpace(id)
}

// NormalizePaymentMethod collapses whitespace so "Google  Pay" matches the
// canonical method name. Case is preserved.
func NormalizePaymentMethod(method string) string {
	return TrimAndNormalize(method)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizePaymentNumber(number string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, number)
}
