package main

import (
	"context"
	"fmt"

	"github.com/tournevent/fancourier/internal/config"
	"github.com/tournevent/fancourier/internal/telemetry"
	"github.com/tournevent/fancourier/internal/transport"
	"github.com/tournevent/fancourier/pkg/catalog"
	"github.com/tournevent/fancourier/pkg/rate"
	"github.com/tournevent/fancourier/pkg/shipper/fancourier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel, cfg.ServiceName)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func initCatalog(cfg *config.Config) *catalog.Catalog {
	return catalog.New(cfg.EnabledServices...)
}

func initCourier(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) (*fancourier.Client, error) {
	rt, err := transport.New(cfg.FanCourierTransport, cfg.FanCourierTimeout)
	if err != nil {
		return nil, fmt.Errorf("courier transport: %w", err)
	}

	client := fancourier.New(fancourier.Config{
		BaseURL:   cfg.FanCourierBaseURL,
		Domain:    cfg.FanCourierDomain,
		Version:   cfg.Version,
		Timeout:   cfg.FanCourierTimeout,
		Transport: rt,
		UseMock:   cfg.FanCourierUseMock,
	}, logger, tracer)
	return client.WithMetrics(metrics), nil
}

func initCalculator(cfg *config.Config, cat *catalog.Catalog, client *fancourier.Client, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) (*rate.Calculator, error) {
	keys := make([]string, 0)
	for _, svc := range cat.All() {
		keys = append(keys, svc.Key)
	}

	settings, err := config.LoadMethods(keys)
	if err != nil {
		return nil, err
	}

	return rate.NewCalculator(cat, client, logger, rate.Options{
		Settings: settings,
		Cooldown: cfg.FanboxCooldown,
		Metrics:  metrics,
		Tracer:   tracer,
	}), nil
}
