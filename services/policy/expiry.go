package policy

import "time"

// Expired reports whether a validity window ending at validUntil has closed.
// The comparison is strict: an offer valid until exactly now is still live.
func Expired(validUntil, now time.Time) bool {
	return validUntil.Before(now)
}
