// Package sanitizer normalizes request input before validation and storage.
//
// All functions are idempotent and never fail: invalid input comes back
// trimmed or empty, and validation decides what to reject.
//
// Normalization includes:
//   - Identifiers: trim surrounding whitespace
//   - Free text: collapse inner whitespace runs to one space
//   - Emails: trim and lowercase
//   - Payment numbers: strip spaces and dashes used as visual separators
package sanitizer
