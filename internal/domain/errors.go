package domain

import (
	"errors"
	"net"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrTransient    = errors.New("transient upstream failure")
	ErrBadData      = errors.New("malformed record")
	ErrLockHeld     = errors.New("lock already held")
	ErrStaleQuote   = errors.New("quote exceeds max age")
)

// IsTransient reports whether err should be retried at the collaborator
// boundary: explicit transient markers, rate limiting, and network timeouts
// all qualify. Auth and data errors never do.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
