// Package sanitizer normalizes free-form request input before it is validated
// and stored.
//
// Every function is idempotent and never fails: input that cannot be cleaned
// comes back as is, or as an empty string, and validation decides.
package sanitizer
