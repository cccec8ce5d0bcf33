package ai

import "errors"

// ErrQuotaExceeded indicates the provider returned a throttle response (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrInvalidCredential indicates the provider rejected the key (HTTP 401).
// Distinct from throttling so the pool never cools down a dead key.
var ErrInvalidCredential = errors.New("ai credential rejected")

// ErrTimeout indicates no response within the configured window.
var ErrTimeout = errors.New("ai request timed out")

// ErrMalformedResponse indicates the upstream response could not be parsed
// into the expected completion shape.
var ErrMalformedResponse = errors.New("ai response malformed")
