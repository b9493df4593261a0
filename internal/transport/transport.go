// Package transport builds the HTTP transports used to reach the courier API.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
)

// Transport kinds accepted by New.
const (
	KindDefault = "default"
	KindChrome  = "chrome"
)

// New returns the traced transport of the given kind.
func New(kind string, timeout time.Duration) (http.RoundTripper, error) {
	var base http.RoundTripper
	switch kind {
	case "", KindDefault:
		base = http.DefaultTransport.(*http.Transport).Clone()
	case KindChrome:
		base = NewChromeTransport(timeout)
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
	return otelhttp.NewTransport(base), nil
}

// =============================================================================
// CHROME TLS FINGERPRINT
// =============================================================================
//
// Some hosting providers in front of the courier API throttle clients by TLS
// fingerprint. This transport dials with uTLS using Chrome's ClientHello and
// lets ALPN pick HTTP/2 or HTTP/1.1.
//
// =============================================================================

// NewChromeTransport creates an http.RoundTripper presenting Chrome's TLS
// fingerprint.
func NewChromeTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	return &chromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
		},
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
			ForceAttemptHTTP2: false,
		},
	}
}

type chromeTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip tries HTTP/2 and falls back to HTTP/1.1. Plain http requests go
// straight to HTTP/1.1.
func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	retry, rerr := rewind(req)
	if rerr != nil {
		return nil, err
	}
	return t.h1.RoundTrip(retry)
}

// rewind returns a copy of req with a fresh body for a second attempt.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	retry := req.Clone(req.Context())
	retry.Body = body
	return retry, nil
}

func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tlsConn, nil
}
