package rate

import (
	"github.com/shopspring/decimal"
	"github.com/tournevent/fancourier/pkg/catalog"
)

// Settings are the per-method pricing options a shop owner configures.
type Settings struct {
	Title           string          `json:"title"`
	DynamicPricing  bool            `json:"dynamic_pricing"`
	FreeShippingMin decimal.Decimal `json:"free_shipping_min"` // 0 disables free shipping
	CostBucharest   decimal.Decimal `json:"cost_bucharest"`
	CostCountry     decimal.Decimal `json:"cost_country"`
	MaxWeightKg     float64         `json:"max_weight_kg"` // 0 keeps the service default
}

// DefaultSettings returns the settings a method starts with.
func DefaultSettings(s catalog.Service) Settings {
	return Settings{
		Title:          s.Name,
		DynamicPricing: true,
	}
}

// maxWeight resolves the effective weight limit, 0 meaning unlimited. Only
// services with a built-in limit can be limited.
func (s Settings) maxWeight(svc catalog.Service) float64 {
	if svc.MaxWeightKg <= 0 {
		return 0
	}
	if s.MaxWeightKg > 0 {
		return s.MaxWeightKg
	}
	return svc.MaxWeightKg
}

// freeShipping reports whether the cart total reaches the free threshold.
func (s Settings) freeShipping(cartTotal decimal.Decimal) bool {
	return s.FreeShippingMin.IsPositive() && cartTotal.GreaterThanOrEqual(s.FreeShippingMin)
}
