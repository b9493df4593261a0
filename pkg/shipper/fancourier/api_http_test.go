package fancourier_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/fancourier/pkg/shipper"
	"github.com/tournevent/fancourier/pkg/shipper/fancourier"
)

const testDomain = "https://shop.example.ro"

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

// recordedRequest captures what the courier endpoint received.
type recordedRequest struct {
	path   string
	header http.Header
	form   url.Values
}

func newTestAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*fancourier.HTTPAPIClient, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		seen = append(seen, recordedRequest{path: r.URL.Path, header: r.Header.Clone(), form: r.PostForm})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	api := fancourier.NewHTTPAPIClient(fancourier.HTTPAPIClientConfig{
		BaseURL: srv.URL,
		Domain:  testDomain,
		Version: "1.2.3",
		Tokens:  staticToken("tok-123"),
	})
	return api, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), seen...)
	}
}

func serviceRequest() *fancourier.ServiceRequest {
	return &fancourier.ServiceRequest{
		ServiceTypeID: 27,
		County:        "Bucuresti",
		Locality:      "Bucuresti",
		WeightKg:      2.5,
		Dimensions:    shipper.DefaultDimensions,
	}
}

func TestHTTPAPIClient_GetTariff(t *testing.T) {
	api, seen := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tariff": 12.5}`)
	})

	resp, err := api.GetTariff(context.Background(), serviceRequest())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(12.5).Equal(resp.Tariff))

	require.Len(t, seen(), 1)
	got := seen()[0]
	assert.Equal(t, "/get-tariff", got.path)
	assert.Equal(t, "Bearer tok-123", got.header.Get("Authorization"))
	assert.Equal(t, "application/json", got.header.Get("Accept"))
	assert.Equal(t, "application/x-www-form-urlencoded", got.header.Get("Content-Type"))
	assert.Equal(t, "fancourier-checkout/1.2.3; "+testDomain, got.header.Get("User-Agent"))

	assert.Equal(t, "27", got.form.Get("serviceTypeId"))
	assert.Equal(t, "Bucuresti", got.form.Get("recipientCounty"))
	assert.Equal(t, "Bucuresti", got.form.Get("recipientLocality"))
	assert.Equal(t, "2.5", got.form.Get("weight"))
	assert.Equal(t, "30", got.form.Get("length"))
	assert.Equal(t, "20", got.form.Get("width"))
	assert.Equal(t, "10", got.form.Get("height"))
	assert.Equal(t, testDomain, got.form.Get("domain"))
}

func TestHTTPAPIClient_GetTariff_StringTariff(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tariff": "17.30"}`)
	})

	resp, err := api.GetTariff(context.Background(), serviceRequest())
	require.NoError(t, err)
	assert.Equal(t, "17.3", resp.Tariff.String())
}

func TestHTTPAPIClient_GetTariff_ErrorBody(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "Localitate invalida"}`)
	})

	_, err := api.GetTariff(context.Background(), serviceRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrInvalidTariff))
	assert.Contains(t, err.Error(), "Localitate invalida")
}

func TestHTTPAPIClient_GetTariff_HTTP500(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream down")
	})

	_, err := api.GetTariff(context.Background(), serviceRequest())
	require.Error(t, err)

	var shipperErr *shipper.ShipperError
	require.True(t, errors.As(err, &shipperErr))
	assert.Equal(t, "HTTP_500", shipperErr.Code)
	assert.Equal(t, http.StatusInternalServerError, shipperErr.StatusCode)
	assert.Equal(t, "upstream down", shipperErr.Message)
	assert.True(t, errors.Is(err, shipper.ErrServiceUnavailable))
	assert.True(t, shipper.IsTransient(err))
}

func TestHTTPAPIClient_CheckService(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"bare one", "1", true},
		{"bare zero", "0", false},
		{"non-json one", " 1\n", true},
		{"json available true", `{"available": true}`, true},
		{"json available numeric", `{"available": 1}`, true},
		{"json available false", `{"available": false}`, false},
		{"json available string zero", `{"available": "0"}`, false},
		{"json without field", `{"status": "ok"}`, false},
		{"garbage", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, seen := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			resp, err := api.CheckService(context.Background(), serviceRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Available)

			got := seen()[0]
			form := got.form
			assert.Equal(t, "/check-service", got.path)
			assert.Equal(t, "30", form.Get("packageLength"))
			assert.Equal(t, "20", form.Get("packageWidth"))
			assert.Equal(t, "10", form.Get("packageHeight"))
			assert.Empty(t, form.Get("length"))
		})
	}
}

func TestHTTPAPIClient_Authenticate(t *testing.T) {
	api, seen := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token": "fresh"}`)
	})

	resp, err := api.Authenticate(context.Background(), testDomain)
	require.NoError(t, err)
	assert.Equal(t, "fresh", resp.Token)

	got := seen()[0]
	assert.Equal(t, "/authShop", got.path)
	assert.Equal(t, testDomain, got.form.Get("domain"))
	assert.Empty(t, got.header.Get("Authorization"))
}

func TestHTTPAPIClient_Authenticate_Rejected(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "domain not registered"}`)
	})

	_, err := api.Authenticate(context.Background(), testDomain)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrAuthenticationFailed))
	assert.Contains(t, err.Error(), "domain not registered")
}

func TestHTTPAPIClient_SelfAuthenticates(t *testing.T) {
	var authCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/authShop":
			authCalls.Add(1)
			fmt.Fprint(w, `{"token": "minted"}`)
		case "/get-tariff":
			assert.Equal(t, "Bearer minted", r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"tariff": 9}`)
		}
	}))
	defer srv.Close()

	api := fancourier.NewHTTPAPIClient(fancourier.HTTPAPIClientConfig{BaseURL: srv.URL, Domain: testDomain})

	for i := 0; i < 3; i++ {
		resp, err := api.GetTariff(context.Background(), serviceRequest())
		require.NoError(t, err)
		assert.Equal(t, "9", resp.Tariff.String())
	}
	assert.Equal(t, int32(1), authCalls.Load(), "token is reused while valid")
}

func TestHTTPAPIClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	api := fancourier.NewHTTPAPIClient(fancourier.HTTPAPIClientConfig{
		BaseURL: srv.URL,
		Domain:  testDomain,
		Tokens:  staticToken("tok"),
	})

	_, err := api.GetTariff(context.Background(), serviceRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrServiceUnavailable))
}
