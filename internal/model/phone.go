package model

import "strings"

// NormalizePhone converts a raw phone string to E.164. Numbers already carrying
// the 55 country code keep it; bare 10/11-digit numbers are assumed Brazilian
// local; anything else is treated as international digits.
func NormalizePhone(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "55") {
		return "+" + digits
	}
	if len(digits) == 10 || len(digits) == 11 {
		return "+55" + digits
	}
	return "+" + digits
}

// ValidPhone reports whether a normalized number is usable as a dedup key.
func ValidPhone(normalized string) bool {
	return len(normalized) >= 8 && len(normalized) <= 20
}
