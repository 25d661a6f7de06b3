package errx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the external model gateways (embedding and generation)
// and the persisted similarity index. Callers branch on these with errors.Is
// to pick the defined fallback instead of inspecting provider errors.
var (
	// ErrServiceUnavailable marks an unreachable or failing external service.
	ErrServiceUnavailable = errors.New("external service unavailable")
	// ErrRateLimited marks a rejected call due to provider rate limits.
	ErrRateLimited = errors.New("external service rate limited")
	// ErrTimeout marks an external call that exceeded its deadline.
	ErrTimeout = errors.New("external service call timed out")
	// ErrIndexIncompatible marks a persisted index whose manifest does not
	// match the active embedding space. The index must be rebuilt.
	ErrIndexIncompatible = errors.New("persisted index incompatible")
	// ErrIndexCorrupt marks an unreadable persisted index artifact.
	ErrIndexCorrupt = errors.New("persisted index corrupt")
)

// WrapGateway wraps an external gateway error (embedding or generation)
// with a consistent status code and safe message.
func WrapGateway(err error) error {
	if err == nil {
		return nil
	}
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout):
		status = http.StatusGatewayTimeout
	}
	return New(err, status, GatewayErrorMessage)
}

// WrapIndex wraps a similarity index error with a consistent status and message.
func WrapIndex(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusInternalServerError, IndexErrorMessage)
}
