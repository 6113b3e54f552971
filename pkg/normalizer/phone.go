package normalizer

import "strings"

const (
	CountryCode = "55"

	MinPhoneDigits = 10
	MaxPhoneDigits = 13
)

// Digits strips every non-digit character.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone returns the digits of raw prefixed with the Brazilian country code.
//
// Numbers that already start with "55" and have 11 to 13 digits are returned as-is.
// Anything else gets "55" prepended, including numbers that carry a different
// country code: the service only targets Brazilian leads.
func NormalizePhone(raw string) string {
	digits := Digits(raw)

	if strings.HasPrefix(digits, CountryCode) && len(digits) >= 11 && len(digits) <= MaxPhoneDigits {
		return digits
	}

	return CountryCode + digits
}

func IsValidPhone(raw string) bool {
	n := len(Digits(raw))
	return n >= MinPhoneDigits && n <= MaxPhoneDigits
}

// MaskPhone keeps the last four digits of a phone number, for log lines.
func MaskPhone(raw string) string {
	digits := Digits(raw)
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
