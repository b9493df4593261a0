package fancourier

import (
	"context"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/tournevent/fancourier/pkg/shipper"
)

// APIClient defines the interface for FAN Courier eCommerce API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// Authenticate obtains a shop token for a site domain (POST /authShop).
	Authenticate(ctx context.Context, domain string) (*AuthResponse, error)

	// CheckService asks whether a service delivers to a destination (POST /check-service).
	CheckService(ctx context.Context, req *ServiceRequest) (*CheckServiceResponse, error)

	// GetTariff quotes a service for a destination (POST /get-tariff).
	GetTariff(ctx context.Context, req *ServiceRequest) (*TariffResponse, error)
}

// ============================================================================
// API Request/Response Types
// ============================================================================

// ServiceRequest is the shared input of check-service and get-tariff.
type ServiceRequest struct {
	ServiceTypeID int
	County        string
	Locality      string
	WeightKg      float64
	Dimensions    shipper.Dimensions
}

// tariffForm encodes the get-tariff body.
func (r *ServiceRequest) tariffForm() url.Values {
	v := r.baseForm()
	v.Set("length", formatFloat(r.Dimensions.LengthCm))
	v.Set("width", formatFloat(r.Dimensions.WidthCm))
	v.Set("height", formatFloat(r.Dimensions.HeightCm))
	return v
}

// checkForm encodes the check-service body, which names dimensions differently.
func (r *ServiceRequest) checkForm() url.Values {
	v := r.baseForm()
	v.Set("packageLength", formatFloat(r.Dimensions.LengthCm))
	v.Set("packageWidth", formatFloat(r.Dimensions.WidthCm))
	v.Set("packageHeight", formatFloat(r.Dimensions.HeightCm))
	return v
}

func (r *ServiceRequest) baseForm() url.Values {
	weight := r.WeightKg
	if weight <= 0 {
		weight = 1
	}
	v := url.Values{}
	v.Set("serviceTypeId", strconv.Itoa(r.ServiceTypeID))
	v.Set("recipientCounty", r.County)
	v.Set("recipientLocality", r.Locality)
	v.Set("weight", formatFloat(weight))
	return v
}

func formatFloat(f float64) string {
	if f <= 0 {
		f = 1
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// AuthResponse is the authShop answer.
type AuthResponse struct {
	Token string `json:"token"`
}

// CheckServiceResponse reports service availability.
type CheckServiceResponse struct {
	Available bool
	Raw       string // Response body when it was not a JSON object
}

// TariffResponse carries a quoted price.
type TariffResponse struct {
	Tariff decimal.Decimal
}
