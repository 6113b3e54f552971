package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

var reSHA256 = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Hash returns the lowercase hex SHA-256 digest of value's UTF-8 bytes.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func IsSHA256Hex(s string) bool {
	return reSHA256.MatchString(s)
}
