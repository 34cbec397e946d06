package model

import "errors"

// Sentinel errors for the five error kinds in the propagation policy.
// Adapters and the core wrap these with fmt.Errorf("%w: ...", ErrX, ...)
// so callers can errors.Is against a stable kind while still getting a
// descriptive message.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrProxyFailure         = errors.New("proxy failure")
	ErrProxyInconsistency   = errors.New("proxy inconsistency")
	ErrSanitizationFailure  = errors.New("sanitization failure")
	ErrRegenerationFailure  = errors.New("regeneration failure")
)
