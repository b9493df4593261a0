// Package fancourier provides integration with the FAN Courier eCommerce API.
package fancourier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tournevent/fancourier/internal/telemetry"
	"github.com/tournevent/fancourier/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "fancourier"

// Config holds FAN Courier configuration.
type Config struct {
	BaseURL    string
	Domain     string // Site URL the shop is registered under
	Version    string
	Timeout    time.Duration
	Transport  http.RoundTripper
	TokenStore TokenStore
	UseMock    bool // When true, uses mock API client
}

// Shipment describes a parcel to quote.
type Shipment struct {
	Service     string // Courier service name, e.g. ServiceFANbox
	COD         bool
	Destination shipper.Destination
	WeightKg    float64
	Dimensions  shipper.Dimensions
}

func (s Shipment) serviceTypeID() int {
	id := ServiceTypeID(s.Service)
	if s.COD {
		if cod := CODServiceTypeID(id); cod != 0 {
			return cod
		}
	}
	return id
}

func (s Shipment) request() *ServiceRequest {
	dims := s.Dimensions
	if dims == (shipper.Dimensions{}) {
		dims = shipper.DefaultDimensions
	}
	return &ServiceRequest{
		ServiceTypeID: s.serviceTypeID(),
		County:        s.Destination.County,
		Locality:      s.Destination.Locality,
		WeightKg:      s.WeightKg,
		Dimensions:    dims,
	}
}

// Client is the FAN Courier client. It delegates API calls to the
// underlying APIClient (mock or HTTP) and adds logging, tracing and metrics.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
	metrics   *telemetry.Metrics
}

// New creates a new FAN Courier client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:    cfg.BaseURL,
			Domain:     cfg.Domain,
			Version:    cfg.Version,
			Timeout:    cfg.Timeout,
			Transport:  cfg.Transport,
			TokenStore: cfg.TokenStore,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if tracer == nil {
		tracer = otel.Tracer(carrierName)
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// WithMetrics records courier calls into m.
func (c *Client) WithMetrics(m *telemetry.Metrics) *Client {
	c.metrics = m
	return c
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Configured reports whether the client has what it needs to call the API.
func (c *Client) Configured() bool {
	return c.config.UseMock || c.config.Domain != ""
}

// CheckAvailability asks whether the service delivers to the destination.
func (c *Client) CheckAvailability(ctx context.Context, s Shipment) (bool, error) {
	req := s.request()
	ctx, span := c.startSpan(ctx, "check-service", req)
	defer span.End()

	start := time.Now()
	resp, err := c.apiClient.CheckService(ctx, req)
	c.observe(ctx, span, "check-service", start, err)
	if err != nil {
		return false, err
	}

	span.SetAttributes(attribute.Bool("fancourier.available", resp.Available))
	c.logger.Ctx(ctx).Debug("FAN Courier service check",
		zap.String("service", s.Service),
		zap.Int("service_type_id", req.ServiceTypeID),
		zap.String("county", req.County),
		zap.String("locality", req.Locality),
		zap.Bool("available", resp.Available),
	)
	return resp.Available, nil
}

// GetTariff quotes the service for the destination. A zero or negative
// tariff is reported as ErrInvalidTariff.
func (c *Client) GetTariff(ctx context.Context, s Shipment) (decimal.Decimal, error) {
	req := s.request()
	ctx, span := c.startSpan(ctx, "get-tariff", req)
	defer span.End()

	start := time.Now()
	resp, err := c.apiClient.GetTariff(ctx, req)
	if err == nil && !resp.Tariff.IsPositive() {
		err = shipper.NewShipperError(carrierName, "TARIFF_ERROR",
			fmt.Sprintf("non-positive tariff %s", resp.Tariff)).WithCause(shipper.ErrInvalidTariff)
	}
	c.observe(ctx, span, "get-tariff", start, err)
	if err != nil {
		return decimal.Zero, err
	}

	span.SetAttributes(attribute.String("fancourier.tariff", resp.Tariff.String()))
	c.logger.Ctx(ctx).Debug("FAN Courier tariff",
		zap.String("service", s.Service),
		zap.Int("service_type_id", req.ServiceTypeID),
		zap.String("county", req.County),
		zap.String("locality", req.Locality),
		zap.Float64("weight", req.WeightKg),
		zap.String("tariff", resp.Tariff.String()),
	)
	return resp.Tariff, nil
}

func (c *Client) startSpan(ctx context.Context, endpoint string, req *ServiceRequest) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "fancourier."+endpoint, trace.WithAttributes(
		attribute.Int("fancourier.service_type_id", req.ServiceTypeID),
		attribute.String("fancourier.county", req.County),
		attribute.String("fancourier.locality", req.Locality),
		attribute.Float64("fancourier.weight_kg", req.WeightKg),
	))
}

func (c *Client) observe(ctx context.Context, span trace.Span, endpoint string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		transient := shipper.IsTransient(err)
		c.metrics.RecordError(endpoint, errorType(err))
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("fancourier.transient", transient))
		span.SetStatus(codes.Error, err.Error())

		log := c.logger.Ctx(ctx).Error
		if transient {
			log = c.logger.Ctx(ctx).Warn
		}
		log("FAN Courier API error",
			zap.String("endpoint", endpoint),
			zap.Bool("transient", transient),
			zap.Error(err),
		)
	}
	c.metrics.RecordCourierCall(endpoint, status, time.Since(start))
}

func errorType(err error) string {
	var shipperErr *shipper.ShipperError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, shipper.ErrAuthenticationFailed):
		return "auth"
	case errors.Is(err, shipper.ErrInvalidTariff):
		return "invalid_tariff"
	case errors.As(err, &shipperErr) && shipperErr.StatusCode != 0:
		return shipperErr.Code
	case shipper.IsTransient(err):
		return "transport"
	default:
		return "unknown"
	}
}
