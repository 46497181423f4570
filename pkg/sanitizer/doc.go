// Package sanitizer normalizes client-supplied contact data before it is
// validated or stored.
//
// All functions are idempotent and never return errors: input that cannot
// be normalized comes back empty. Phone numbers are converted to E.164 so
// that the phone-based identity lookup treats "+48 123 456 789" and
// "123456789" as the same caller.
package sanitizer
