package normalizer

import (
	"regexp"
	"strings"
)

// Not RFC 5322: only rejects obviously malformed addresses.
var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(raw string) bool {
	return reEmail.MatchString(raw)
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
