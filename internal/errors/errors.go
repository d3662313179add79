// Package errors provides domain-specific error types and sentinel errors
// shared by the webhook, gateway and lookup layers.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrSignatureMismatch indicates the webhook body did not match its HMAC signature.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrUnknownEventShape indicates a messaging entry carried none of the known event fields.
	ErrUnknownEventShape = errors.New("unknown event shape")

	// ErrLookupNotFound indicates the stats service has no summoner for the handle.
	ErrLookupNotFound = errors.New("summoner not found")

	// ErrConfigMissing indicates a mandatory configuration value is absent.
	ErrConfigMissing = errors.New("missing configuration")

	// ErrInvalidTransition indicates a conversation stage change that is not allowed.
	ErrInvalidTransition = errors.New("invalid stage transition")
)

// IsSignatureMismatch reports whether err is or wraps ErrSignatureMismatch.
func IsSignatureMismatch(err error) bool {
	return errors.Is(err, ErrSignatureMismatch)
}

// IsConfigMissing reports whether err is or wraps ErrConfigMissing.
func IsConfigMissing(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}

// GatewayError represents a failed call to an outbound HTTP API
// (Send API, profile lookup, thread settings, stats service).
type GatewayError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s failed (url=%s, status=%d): %s", e.Op, e.URL, e.StatusCode, e.Body)
		}
		if e.Err == nil {
			return fmt.Sprintf("%s failed (url=%s, status=%d)", e.Op, e.URL, e.StatusCode)
		}
		return fmt.Sprintf("%s failed (url=%s, status=%d): %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed (url=%s): %v", e.Op, e.URL, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a new gateway error.
func NewGatewayError(op, url string, statusCode int, body string, err error) *GatewayError {
	return &GatewayError{
		Op:         op,
		URL:        url,
		StatusCode: statusCode,
		Body:       body,
		Err:        err,
	}
}

// StatusCode extracts the HTTP status from a GatewayError anywhere in err's chain.
// Returns 0 when err carries no status (transport failures, other error types).
func StatusCode(err error) int {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.StatusCode
	}
	return 0
}
