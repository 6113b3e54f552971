// Package sanitizer cleans free-text form input before it is validated and
// forwarded.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. They never fail; input that sanitizes to nothing comes
// back as "".
//
// Sanitization includes:
//   - Cities: collapse whitespace, trim, upper case ("  belo   horizonte " becomes "BELO HORIZONTE")
//   - Messages: drop control characters other than newline and tab, trim
//   - Text values: drop control characters, trim
package sanitizer
