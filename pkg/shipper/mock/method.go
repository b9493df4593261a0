// Package mock provides a mock shipping method for testing.
package mock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tournevent/fancourier/pkg/shipper"
)

// Method is a mock shipping method quoting a fixed cost.
type Method struct {
	id       string
	priority int
	cost     decimal.Decimal

	// OnQuote overrides the fixed quote when set.
	OnQuote func(ctx context.Context, req *shipper.RateRequest) (*shipper.Rate, error)

	// Err is returned from Quote when set.
	Err error

	// Latency delays every quote, honouring context cancellation.
	Latency time.Duration

	calls atomic.Int64
}

// New creates a mock method with a 15.00 fixed cost.
func New(id string) *Method {
	return &Method{id: id, cost: decimal.NewFromInt(15)}
}

// WithPriority sets the method priority.
func (m *Method) WithPriority(p int) *Method {
	m.priority = p
	return m
}

// WithCost sets the fixed cost.
func (m *Method) WithCost(cost decimal.Decimal) *Method {
	m.cost = cost
	return m
}

// ID returns the method ID.
func (m *Method) ID() string {
	return m.id
}

// Priority returns the method priority.
func (m *Method) Priority() int {
	return m.priority
}

// Calls returns how many times Quote ran.
func (m *Method) Calls() int {
	return int(m.calls.Load())
}

// Quote returns the mock rate.
func (m *Method) Quote(ctx context.Context, req *shipper.RateRequest) (*shipper.Rate, error) {
	m.calls.Add(1)

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.OnQuote != nil {
		return m.OnQuote(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	return &shipper.Rate{
		RateID:      fmt.Sprintf("%s-rate-%d", m.id, time.Now().UnixNano()),
		MethodID:    m.id,
		Label:       fmt.Sprintf("%s (mock)", m.id),
		Cost:        m.cost,
		ServiceName: m.id,
		Source:      shipper.PricingFixed,
	}, nil
}
