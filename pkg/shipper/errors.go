package shipper

import (
	"errors"
	"fmt"
)

// ShipperError represents an error reported by a courier API.
type ShipperError struct {
	Carrier    string
	Code       string
	Message    string
	StatusCode int
	Transient  bool // outage or throttling rather than a rejected request
	Cause      error
}

// Error implements the error interface.
func (e *ShipperError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ShipperError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for ShipperError.
func (e *ShipperError) Is(target error) bool {
	t, ok := target.(*ShipperError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewShipperError creates a new ShipperError.
func NewShipperError(carrier, code, message string) *ShipperError {
	return &ShipperError{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *ShipperError) WithCause(err error) *ShipperError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *ShipperError) WithStatusCode(code int) *ShipperError {
	e.StatusCode = code
	return e
}

// WithTransient marks the error as an outage or throttling.
func (e *ShipperError) WithTransient(transient bool) *ShipperError {
	e.Transient = transient
	return e
}

// Sentinel errors for common shipping scenarios.
var (
	// ErrInvalidAddress indicates the destination is missing a county or locality.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrServiceUnavailable indicates the courier API could not be reached.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrAuthenticationFailed indicates no courier API token could be obtained.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRateLimitExceeded indicates the courier rate limit was exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidTariff indicates the courier answered without a usable price.
	ErrInvalidTariff = errors.New("invalid tariff")

	// ErrMethodNotFound indicates the requested shipping method is not registered.
	ErrMethodNotFound = errors.New("method not found")

	// ErrMethodUnavailable indicates the method offers no rate for this cart.
	ErrMethodUnavailable = errors.New("method unavailable")

	// ErrWeightExceeded indicates the parcel is over the method's weight limit.
	ErrWeightExceeded = fmt.Errorf("%w: weight limit exceeded", ErrMethodUnavailable)

	// ErrNotConfigured indicates dynamic pricing is enabled without API settings.
	ErrNotConfigured = fmt.Errorf("%w: courier api not configured", ErrMethodUnavailable)

	// ErrDegraded indicates the method is cooling down after tariff failures.
	ErrDegraded = fmt.Errorf("%w: temporarily disabled", ErrMethodUnavailable)
)

// IsTransient reports whether err is an outage or throttling on the courier
// side, as opposed to a request the courier rejected.
func IsTransient(err error) bool {
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Transient
	}
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimitExceeded)
}

// IsUnavailable reports whether err only means the method does not apply,
// as opposed to a failure worth logging.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrMethodUnavailable)
}
