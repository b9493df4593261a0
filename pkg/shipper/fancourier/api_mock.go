package fancourier

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tournevent/fancourier/pkg/shipper"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	// DefaultTariff is quoted when OnGetTariff is not set.
	DefaultTariff decimal.Decimal

	OnAuthenticate func(ctx context.Context, domain string) (*AuthResponse, error)
	OnCheckService func(ctx context.Context, req *ServiceRequest) (*CheckServiceResponse, error)
	OnGetTariff    func(ctx context.Context, req *ServiceRequest) (*TariffResponse, error)

	mu             sync.Mutex
	checkRequests  []ServiceRequest
	tariffRequests []ServiceRequest
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{DefaultTariff: decimal.RequireFromString("19.99")}
}

// Authenticate returns a random mock token.
func (m *MockAPIClient) Authenticate(ctx context.Context, domain string) (*AuthResponse, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	if m.OnAuthenticate != nil {
		return m.OnAuthenticate(ctx, domain)
	}
	return &AuthResponse{Token: "mock-" + uuid.New().String()}, nil
}

// CheckService reports every destination as served.
func (m *MockAPIClient) CheckService(ctx context.Context, req *ServiceRequest) (*CheckServiceResponse, error) {
	m.mu.Lock()
	m.checkRequests = append(m.checkRequests, *req)
	m.mu.Unlock()

	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	if m.OnCheckService != nil {
		return m.OnCheckService(ctx, req)
	}
	return &CheckServiceResponse{Available: true}, nil
}

// GetTariff returns DefaultTariff.
func (m *MockAPIClient) GetTariff(ctx context.Context, req *ServiceRequest) (*TariffResponse, error) {
	m.mu.Lock()
	m.tariffRequests = append(m.tariffRequests, *req)
	m.mu.Unlock()

	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	if m.OnGetTariff != nil {
		return m.OnGetTariff(ctx, req)
	}
	return &TariffResponse{Tariff: m.DefaultTariff}, nil
}

// CheckRequests returns the check-service calls received so far.
func (m *MockAPIClient) CheckRequests() []ServiceRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ServiceRequest(nil), m.checkRequests...)
}

// TariffRequests returns the get-tariff calls received so far.
func (m *MockAPIClient) TariffRequests() []ServiceRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ServiceRequest(nil), m.tariffRequests...)
}

func (m *MockAPIClient) simulate(ctx context.Context) error {
	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.SimulateErrors {
		return shipper.NewShipperError(carrierName, "MOCK_ERROR", "Simulated API error").
			WithCause(shipper.ErrServiceUnavailable)
	}
	return nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
