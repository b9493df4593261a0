// Package rate computes checkout shipping rates for the FAN Courier services.
package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tournevent/fancourier/internal/telemetry"
	"github.com/tournevent/fancourier/pkg/catalog"
	"github.com/tournevent/fancourier/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options tune a Calculator.
type Options struct {
	Settings map[string]Settings // keyed by catalog service key
	Cooldown time.Duration
	Metrics  *telemetry.Metrics
	Tracer   trace.Tracer
}

// Result is the outcome of a rate calculation.
type Result struct {
	Rates   []*shipper.Rate  `json:"rates"`
	Notices []shipper.Notice `json:"notices,omitempty"`
}

// Calculator prices every enabled catalog service for a cart.
type Calculator struct {
	catalog  *catalog.Catalog
	registry *shipper.Registry
	courier  Courier
	health   *Health
	notices  *Notices
	logger   *otelzap.Logger
	tracer   trace.Tracer
	metrics  *telemetry.Metrics

	mu sync.Mutex // serialises Configure
}

// NewCalculator registers a method for each catalog service.
func NewCalculator(cat *catalog.Catalog, courier Courier, logger *otelzap.Logger, opts Options) *Calculator {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("rate")
	}

	c := &Calculator{
		catalog:  cat,
		registry: shipper.NewRegistry(),
		courier:  courier,
		health:   NewHealth(opts.Cooldown),
		notices:  NewNotices(),
		logger:   logger,
		tracer:   tracer,
		metrics:  opts.Metrics,
	}

	for _, svc := range cat.All() {
		settings, ok := opts.Settings[svc.Key]
		if !ok {
			settings = DefaultSettings(svc)
		}
		c.registry.Register(c.newMethod(svc, settings))
	}
	return c
}

func (c *Calculator) newMethod(svc catalog.Service, s Settings) *Method {
	if s.Title == "" {
		s.Title = svc.Name
	}
	return &Method{
		service:  svc,
		settings: s,
		courier:  c.courier,
		health:   c.health,
		notices:  c.notices,
		logger:   c.logger,
		tracer:   c.tracer,
		metrics:  c.metrics,
	}
}

// Configure replaces the settings of the service with key.
func (c *Calculator) Configure(key string, s Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	svc, ok := c.catalog.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", shipper.ErrMethodNotFound, key)
	}
	c.registry.Register(c.newMethod(svc, s))
	return nil
}

// Method returns the registered method with the given method id.
func (c *Calculator) Method(methodID string) (*Method, error) {
	m, err := c.registry.Get(methodID)
	if err != nil {
		return nil, err
	}
	return m.(*Method), nil
}

// Health exposes the cooldown tracker.
func (c *Calculator) Health() *Health {
	return c.health
}

// Calculate quotes the enabled methods requested (all enabled methods when
// req.MethodIDs is empty). Methods that fail or do not apply are left out.
func (c *Calculator) Calculate(ctx context.Context, req *shipper.RateRequest) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "rate.calculate")
	defer span.End()

	ids := c.enabledIDs(req.MethodIDs)
	span.SetAttributes(
		attribute.StringSlice("rate.methods", ids),
		attribute.Float64("rate.package_weight", req.PackageWeight()),
	)

	result := &Result{Rates: []*shipper.Rate{}}
	if len(ids) > 0 {
		rates, errs := c.registry.GetRates(ctx, req, ids)
		for _, err := range errs {
			if shipper.IsUnavailable(err) {
				c.logger.Ctx(ctx).Debug("Method not offered", zap.Error(err))
				continue
			}
			c.logger.Ctx(ctx).Warn("Method failed", zap.Error(err))
		}
		result.Rates = rates
	}
	result.Notices = c.notices.Take(req.SessionID)

	c.logger.Ctx(ctx).Info("Rates calculated",
		zap.String("city", req.Destination.City),
		zap.String("state", req.Destination.State),
		zap.Float64("package_weight", req.PackageWeight()),
		zap.Int("rates", len(result.Rates)),
	)
	return result, nil
}

func (c *Calculator) enabledIDs(requested []string) []string {
	want := make(map[string]bool, len(requested))
	for _, id := range requested {
		want[id] = true
	}

	var ids []string
	for _, svc := range c.catalog.Enabled() {
		if len(want) > 0 && !want[svc.MethodID] {
			continue
		}
		ids = append(ids, svc.MethodID)
	}
	return ids
}
