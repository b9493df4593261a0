package fancourier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tournevent/fancourier/pkg/shipper"
)

// DefaultBaseURL is the FAN Courier eCommerce API.
const DefaultBaseURL = "https://ecommerce.fancourier.ro"

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	domain     string
	userAgent  string
	tokens     TokenSource
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	Domain    string // Site URL sent as "domain" with every call
	Version   string // Reported in the User-Agent
	Timeout   time.Duration
	Transport http.RoundTripper

	// Tokens supplies bearer tokens. When nil, a source over TokenStore
	// authenticating through this client is used.
	Tokens     TokenSource
	TokenStore TokenStore
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	c := &HTTPAPIClient{
		baseURL:   baseURL,
		domain:    cfg.Domain,
		userAgent: fmt.Sprintf("fancourier-checkout/%s; %s", version, cfg.Domain),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
			// at most one redirect
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 1 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}

	c.tokens = cfg.Tokens
	if c.tokens == nil {
		store := cfg.TokenStore
		if store == nil {
			store = NewMemoryTokenStore()
		}
		c.tokens = NewTokenSource(store, c, cfg.Domain)
	}
	return c
}

// Authenticate requests a shop token for domain.
func (c *HTTPAPIClient) Authenticate(ctx context.Context, domain string) (*AuthResponse, error) {
	resp, err := c.doRequest(ctx, "/authShop", url.Values{"domain": {domain}}, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp).WithCause(shipper.ErrAuthenticationFailed)
	}

	var result AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if result.Token == "" {
		return nil, shipper.NewShipperError(carrierName, "AUTH_ERROR", "authShop returned no token").
			WithCause(shipper.ErrAuthenticationFailed)
	}
	return &result, nil
}

// CheckService asks the courier whether the service covers the destination.
func (c *HTTPAPIClient) CheckService(ctx context.Context, req *ServiceRequest) (*CheckServiceResponse, error) {
	body, err := c.postAuthenticated(ctx, "/check-service", req.checkForm())
	if err != nil {
		return nil, err
	}

	parsed := parseBody(body)
	return &CheckServiceResponse{
		Available: parsed.available(),
		Raw:       parsed.scalar,
	}, nil
}

// GetTariff quotes the service for the destination.
func (c *HTTPAPIClient) GetTariff(ctx context.Context, req *ServiceRequest) (*TariffResponse, error) {
	body, err := c.postAuthenticated(ctx, "/get-tariff", req.tariffForm())
	if err != nil {
		return nil, err
	}

	parsed := parseBody(body)
	raw, ok := parsed.fields["tariff"]
	if !ok || raw == nil {
		msg := parsed.text("error")
		if msg == "" {
			msg = parsed.text("message")
		}
		if msg == "" {
			msg = "Invalid tariff response"
		}
		return nil, shipper.NewShipperError(carrierName, "TARIFF_ERROR", msg).WithCause(shipper.ErrInvalidTariff)
	}

	tariff, err := decimal.NewFromString(strings.TrimSpace(fmt.Sprint(raw)))
	if err != nil {
		return nil, shipper.NewShipperError(carrierName, "TARIFF_ERROR", fmt.Sprintf("unparsable tariff %v", raw)).
			WithCause(shipper.ErrInvalidTariff)
	}
	return &TariffResponse{Tariff: tariff}, nil
}

// postAuthenticated sends a form with the bearer token and returns the body
// of a 200 response.
func (c *HTTPAPIClient) postAuthenticated(ctx context.Context, path string, form url.Values) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	form.Set("domain", c.domain)
	resp, err := c.doRequest(ctx, path, form, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", shipper.ErrServiceUnavailable, path, err)
	}
	return body, nil
}

// doRequest performs a form POST with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, path string, form url.Values, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, shipper.NewShipperError(carrierName, "TRANSPORT_ERROR", path).
			WithCause(fmt.Errorf("%w: %v", shipper.ErrServiceUnavailable, err)).
			WithTransient(true)
	}
	return resp, nil
}

// parseError extracts error information from a non-200 response.
func (c *HTTPAPIClient) parseError(resp *http.Response) *shipper.ShipperError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	msg := strings.TrimSpace(string(body))
	parsed := parseBody(body)
	if m := parsed.text("error"); m != "" {
		msg = m
	} else if m := parsed.text("message"); m != "" {
		msg = m
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	err := shipper.NewShipperError(carrierName, fmt.Sprintf("HTTP_%d", resp.StatusCode), msg).
		WithStatusCode(resp.StatusCode)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		err.WithCause(shipper.ErrRateLimitExceeded).WithTransient(true)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		err.WithCause(shipper.ErrAuthenticationFailed)
	case resp.StatusCode >= 500:
		err.WithCause(shipper.ErrServiceUnavailable).WithTransient(true)
	}
	return err
}

// responseBody is a decoded API answer: a JSON object, or a bare scalar when
// the body is not an object.
type responseBody struct {
	fields map[string]any
	scalar string
}

func parseBody(body []byte) responseBody {
	trimmed := bytes.TrimSpace(body)

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err == nil && !dec.More() {
		switch t := v.(type) {
		case map[string]any:
			return responseBody{fields: t}
		case nil:
			return responseBody{}
		default:
			return responseBody{scalar: fmt.Sprint(t)}
		}
	}
	return responseBody{scalar: string(trimmed)}
}

// available reads an "available" field, or treats a bare "1" as yes.
func (b responseBody) available() bool {
	if v, ok := b.fields["available"]; ok {
		return truthy(v)
	}
	return b.scalar == "1" || b.scalar == "true"
}

func (b responseBody) text(key string) string {
	v, ok := b.fields[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return key
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case string:
		return t != "" && t != "0"
	default:
		return true
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
