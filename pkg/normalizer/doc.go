// Package normalizer canonicalizes lead contact data before it leaves the service.
//
// All functions are pure and idempotent. Invalid input is handled gracefully:
// normalization never fails, validity is reported by the Is* predicates.
//
// Normalization includes:
//   - Phone numbers: digits only, Brazilian country code "55" prepended when absent
//   - Emails: lowercase, surrounding whitespace trimmed
//   - Pseudonymization: lowercase hex SHA-256 of the canonical value
package normalizer
