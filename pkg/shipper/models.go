package shipper

import (
	"github.com/shopspring/decimal"
	"github.com/tournevent/fancourier/pkg/selection"
)

// MinPackageWeightKg is the floor applied to a computed package weight.
const MinPackageWeightKg = 0.1

// PricingSource records how a rate's cost was obtained.
type PricingSource string

const (
	PricingFree    PricingSource = "free"
	PricingDynamic PricingSource = "dynamic"
	PricingFixed   PricingSource = "fixed"
)

// Address represents a customer shipping address.
type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Line1     string `json:"address_1,omitempty"`
	Line2     string `json:"address_2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"` // county code, e.g. "CJ", "B"
	Postcode  string `json:"postcode,omitempty"`
	Country   string `json:"country,omitempty"` // ISO 3166-1 alpha-2
}

// Item is a cart line as far as shipping is concerned.
type Item struct {
	WeightKg float64 `json:"weight_kg"`
	Quantity int     `json:"quantity"`
}

// Dimensions of a parcel in centimetres.
type Dimensions struct {
	LengthCm float64
	WidthCm  float64
	HeightCm float64
}

// DefaultDimensions is used when the cart does not describe its parcel.
var DefaultDimensions = Dimensions{LengthCm: 30, WidthCm: 20, HeightCm: 10}

// Destination is a courier-side location.
type Destination struct {
	County   string
	Locality string
}

// RateRequest is the input for quoting shipping methods.
type RateRequest struct {
	SessionID   string           `json:"-"`
	MethodIDs   []string         `json:"method_ids,omitempty"` // Empty = all methods
	Destination Address          `json:"destination"`
	Items       []Item           `json:"items"`
	CartTotal   decimal.Decimal  `json:"cart_total"`
	COD         bool             `json:"cod"`
	Selection   selection.Record `json:"-"`
}

// PackageWeight sums weight times quantity over the items, never below
// MinPackageWeightKg.
func (r *RateRequest) PackageWeight() float64 {
	var total float64
	for _, it := range r.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += it.WeightKg * float64(qty)
	}
	if total < MinPackageWeightKg {
		return MinPackageWeightKg
	}
	return total
}

// Rate is a priced shipping option offered at checkout.
type Rate struct {
	RateID         string          `json:"rate_id"`
	MethodID       string          `json:"method_id"`
	Label          string          `json:"label"`
	Cost           decimal.Decimal `json:"cost"`
	ServiceName    string          `json:"service_name"`
	ServiceTypeID  int             `json:"service_type_id"`
	DynamicPricing bool            `json:"dynamic_pricing"`
	Source         PricingSource   `json:"source"`
}

// Notice is a one-off message for the shopper.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
