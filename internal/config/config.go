package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/tournevent/fancourier/pkg/rate"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// FAN Courier
	FanCourierBaseURL   string        `envconfig:"FANCOURIER_BASE_URL" default:"https://ecommerce.fancourier.ro"`
	FanCourierDomain    string        `envconfig:"FANCOURIER_DOMAIN"` // shop URL registered with FAN Courier
	FanCourierUseMock   bool          `envconfig:"FANCOURIER_USE_MOCK" default:"false"`
	FanCourierTimeout   time.Duration `envconfig:"FANCOURIER_TIMEOUT" default:"30s"`
	FanCourierTransport string        `envconfig:"FANCOURIER_TRANSPORT" default:"default"` // default | chrome

	// Checkout
	EnabledServices []string      `envconfig:"ENABLED_SERVICES" default:"redcode,express_loco,omv,paypoint,produse_albe,fanbox"`
	FanboxCooldown  time.Duration `envconfig:"FANBOX_COOLDOWN" default:"5m"`
	CookieSecure    bool          `envconfig:"COOKIE_SECURE" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"fancourier-checkout"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// MethodConfig holds the pricing settings of one shipping method, read from
// METHOD_<KEY>_* variables.
type MethodConfig struct {
	Title           string          `envconfig:"TITLE"`
	DynamicPricing  bool            `envconfig:"DYNAMIC_PRICING" default:"true"`
	FreeShippingMin decimal.Decimal `envconfig:"FREE_SHIPPING_MIN" default:"0"`
	CostBucharest   decimal.Decimal `envconfig:"COST_BUCHAREST" default:"0"`
	CostCountry     decimal.Decimal `envconfig:"COST_COUNTRY" default:"0"`
	MaxWeightKg     float64         `envconfig:"MAX_WEIGHT_KG" default:"0"`
}

// Settings converts to rate settings.
func (m MethodConfig) Settings() rate.Settings {
	return rate.Settings{
		Title:           m.Title,
		DynamicPricing:  m.DynamicPricing,
		FreeShippingMin: m.FreeShippingMin,
		CostBucharest:   m.CostBucharest,
		CostCountry:     m.CostCountry,
		MaxWeightKg:     m.MaxWeightKg,
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// LoadMethods reads the settings of each method key, e.g. METHOD_REDCODE_TITLE.
func LoadMethods(keys []string) (map[string]rate.Settings, error) {
	out := make(map[string]rate.Settings, len(keys))
	for _, key := range keys {
		var mc MethodConfig
		if err := envconfig.Process(MethodPrefix(key), &mc); err != nil {
			return nil, fmt.Errorf("loading %s settings: %w", key, err)
		}
		out[key] = mc.Settings()
	}
	return out, nil
}

// MethodPrefix returns the environment prefix of a method key.
func MethodPrefix(key string) string {
	return "METHOD_" + strings.ToUpper(key)
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("fancourier.mock", c.FanCourierUseMock),
		attribute.Bool("fancourier.configured", c.FanCourierDomain != ""),
		attribute.StringSlice("fancourier.services", c.EnabledServices),
	}
}
