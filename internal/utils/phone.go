package utils

import "strings"

// NormalizePhone coerces a phone number to +995-prefixed international form.
// Already-international numbers (any + prefix) pass through untouched apart
// from separator cleanup; a bare national number gets its leading zeros
// stripped before the prefix is applied.
func NormalizePhone(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))

	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	if strings.HasPrefix(cleaned, "995") {
		return "+" + cleaned
	}
	return "+995" + strings.TrimLeft(cleaned, "0")
}
