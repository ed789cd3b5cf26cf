// Package auth holds the shared-secret check guarding catalog writes.
package auth

import "crypto/subtle"

// Decision is the outcome of a secret check.
type Decision int

const (
	// Denied means the provided secret does not grant write access.
	Denied Decision = iota
	// Authorized means the provided secret matches the configured one.
	Authorized
)

func (d Decision) String() string {
	if d == Authorized {
		return "authorized"
	}
	return "denied"
}

// Authorize compares the caller's secret against the configured one. An empty
// secret on either side is always denied. It keeps no state and must be called
// on every write.
func Authorize(provided, configured string) Decision {
	if provided == "" || configured == "" {
		return Denied
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) != 1 {
		return Denied
	}
	return Authorized
}
