package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tournevent/fancourier/internal/telemetry"
	"github.com/tournevent/fancourier/pkg/catalog"
	"github.com/tournevent/fancourier/pkg/county"
	"github.com/tournevent/fancourier/pkg/selection"
	"github.com/tournevent/fancourier/pkg/shipper"
	"github.com/tournevent/fancourier/pkg/shipper/fancourier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Courier is the subset of the courier client used for pricing.
type Courier interface {
	Configured() bool
	CheckAvailability(ctx context.Context, s fancourier.Shipment) (bool, error)
	GetTariff(ctx context.Context, s fancourier.Shipment) (decimal.Decimal, error)
}

var errNoLocation = fmt.Errorf("%w: no usable locker location", shipper.ErrInvalidAddress)

// Method prices one catalog service. It implements shipper.Method.
type Method struct {
	service  catalog.Service
	settings Settings
	courier  Courier
	health   *Health
	notices  *Notices
	logger   *otelzap.Logger
	tracer   trace.Tracer
	metrics  *telemetry.Metrics
}

// ID returns the checkout method id.
func (m *Method) ID() string {
	return m.service.MethodID
}

// Priority returns the catalog priority.
func (m *Method) Priority() int {
	return m.service.Priority
}

// Settings returns the method's pricing settings.
func (m *Method) Settings() Settings {
	return m.settings
}

func (m *Method) isFanbox() bool {
	return m.service.Key == catalog.KeyFanbox
}

// Quote computes the rate: weight gate, then free shipping, then the courier
// tariff when dynamic pricing is on, then the fixed zone cost.
func (m *Method) Quote(ctx context.Context, req *shipper.RateRequest) (*shipper.Rate, error) {
	ctx, span := m.tracer.Start(ctx, "rate.quote", trace.WithAttributes(
		attribute.String("rate.method", m.ID()),
	))
	defer span.End()

	log := m.logger.Ctx(ctx).WithOptions(zap.Fields(zap.String("method", m.ID()), zap.String("service", m.service.CourierName)))

	weight := req.PackageWeight()
	if limit := m.settings.maxWeight(m.service); limit > 0 && weight > limit {
		log.Debug("Package weight exceeds limit",
			zap.Float64("package_weight", weight),
			zap.Float64("max_allowed", limit),
		)
		return nil, fmt.Errorf("%w: %.2f kg over %.2f kg", shipper.ErrWeightExceeded, weight, limit)
	}

	if m.settings.DynamicPricing && !m.courier.Configured() {
		return nil, shipper.ErrNotConfigured
	}

	if m.isFanbox() && m.health.Degraded(m.ID()) {
		m.notices.Raise(req.SessionID, shipper.Notice{Level: "notice", Message: UnavailableNotice})
		return nil, shipper.ErrDegraded
	}

	var (
		cost   decimal.Decimal
		source shipper.PricingSource
	)
	switch {
	case m.settings.freeShipping(req.CartTotal):
		cost, source = decimal.Zero, shipper.PricingFree
	case m.settings.DynamicPricing:
		tariff, err := m.dynamicCost(ctx, req, weight)
		if err == nil && tariff.IsPositive() {
			cost, source = tariff, shipper.PricingDynamic
			break
		}
		log.Info("Dynamic pricing unavailable, using fixed cost", zap.Error(err))
		cost, source = m.fixedCost(req.Destination), shipper.PricingFixed
	default:
		cost, source = m.fixedCost(req.Destination), shipper.PricingFixed
	}
	if cost.IsNegative() {
		cost = decimal.Zero
	}

	rate := &shipper.Rate{
		RateID:         fmt.Sprintf("%s:%s", m.ID(), uuid.NewString()[:8]),
		MethodID:       m.ID(),
		Label:          m.settings.Title,
		Cost:           cost,
		ServiceName:    m.service.CourierName,
		ServiceTypeID:  m.service.StandardCode,
		DynamicPricing: m.settings.DynamicPricing && cost.IsPositive(),
		Source:         source,
	}

	span.SetAttributes(
		attribute.String("rate.cost", cost.String()),
		attribute.String("rate.source", string(source)),
	)
	m.metrics.RecordRate(m.ID(), string(source))
	log.Debug("Shipping calculation",
		zap.Bool("enable_dynamic", m.settings.DynamicPricing),
		zap.String("free_shipping_min", m.settings.FreeShippingMin.String()),
		zap.String("cart_total", req.CartTotal.String()),
		zap.String("calculated_cost", cost.String()),
		zap.String("source", string(source)),
	)
	return rate, nil
}

func (m *Method) dynamicCost(ctx context.Context, req *shipper.RateRequest, weight float64) (decimal.Decimal, error) {
	if m.isFanbox() {
		return m.fanboxCost(ctx, req, weight)
	}

	dest := req.Destination
	if strings.TrimSpace(dest.City) == "" {
		return decimal.Zero, fmt.Errorf("%w: destination city required", shipper.ErrInvalidAddress)
	}

	shipment := fancourier.Shipment{
		Service: m.service.CourierName,
		COD:     req.COD,
		Destination: shipper.Destination{
			County:   county.Name(dest.State),
			Locality: county.StripDiacritics(strings.TrimSpace(dest.City)),
		},
		WeightKg:   weight,
		Dimensions: shipper.DefaultDimensions,
	}

	available, err := m.courier.CheckAvailability(ctx, shipment)
	if err != nil {
		return decimal.Zero, err
	}
	if !available {
		return decimal.Zero, fmt.Errorf("%w: service does not cover %s, %s",
			shipper.ErrInvalidAddress, shipment.Destination.Locality, shipment.Destination.County)
	}
	return m.courier.GetTariff(ctx, shipment)
}

// fanboxCost quotes the locker's location. Lockers exist nationwide, so the
// availability check is skipped. A failed tariff puts the method in cooldown.
func (m *Method) fanboxCost(ctx context.Context, req *shipper.RateRequest, weight float64) (decimal.Decimal, error) {
	dest, err := fanboxDestination(req)
	if err != nil {
		return decimal.Zero, err
	}

	tariff, err := m.courier.GetTariff(ctx, fancourier.Shipment{
		Service:     m.service.CourierName,
		COD:         req.COD,
		Destination: dest,
		WeightKg:    weight,
		Dimensions:  shipper.DefaultDimensions,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return decimal.Zero, err
		}
		if m.health.MarkDegraded(m.ID()) {
			m.metrics.RecordDegraded()
		}
		m.notices.Raise(req.SessionID, shipper.Notice{Level: "notice", Message: UnavailableNotice})
		m.logger.Ctx(ctx).Warn("FANBox service temporarily unavailable due to API error", zap.Error(err))
		return decimal.Zero, err
	}

	m.health.Restore(m.ID())
	m.notices.Reset(req.SessionID)
	return tariff, nil
}

// fanboxDestination resolves the locker location from the selection, falling
// back to the customer's address when no locker is chosen yet.
func fanboxDestination(req *shipper.RateRequest) (shipper.Destination, error) {
	c, l, ok := req.Selection.Location()
	if !ok {
		city := strings.TrimSpace(req.Destination.City)
		if city == "" {
			return shipper.Destination{}, errNoLocation
		}
		c, l = county.Name(req.Destination.State), city
	}

	c, l = county.StripDiacritics(c), county.StripDiacritics(l)
	if c == selection.Undefined || l == selection.Undefined {
		return shipper.Destination{}, errNoLocation
	}
	return shipper.Destination{County: county.TitleCase(c), Locality: county.TitleCase(l)}, nil
}

func (m *Method) fixedCost(dest shipper.Address) decimal.Decimal {
	if county.IsBucharestArea(dest.State, dest.City) {
		return m.settings.CostBucharest
	}
	return m.settings.CostCountry
}

// Ensure Method implements shipper.Method interface
var _ shipper.Method = (*Method)(nil)
