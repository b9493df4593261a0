// Package shipper provides the shipping-method abstraction the checkout quotes
// against, plus the shared request, rate and error types.
package shipper

import (
	"context"
)

// Method defines the interface every checkout shipping method implements.
type Method interface {
	// ID returns the checkout method identifier (e.g., "fc_pro_fanbox").
	ID() string

	// Priority orders methods in the rate list, highest first.
	Priority() int

	// Quote returns the rate for a cart. Methods that do not apply to the
	// cart return an error matching ErrMethodUnavailable.
	Quote(ctx context.Context, req *RateRequest) (*Rate, error)
}
