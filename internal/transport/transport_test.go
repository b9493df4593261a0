package transport_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/fancourier/internal/transport"
)

func TestNew_UnknownKind(t *testing.T) {
	_, err := transport.New("carrier-pigeon", time.Second)
	assert.Error(t, err)
}

func TestNew_Kinds(t *testing.T) {
	for _, kind := range []string{"", transport.KindDefault, transport.KindChrome} {
		rt, err := transport.New(kind, time.Second)
		require.NoError(t, err, kind)
		assert.NotNil(t, rt)
	}
}

func TestDefaultTransport_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	rt, err := transport.New(transport.KindDefault, time.Second)
	require.NoError(t, err)

	client := &http.Client{Transport: rt}
	resp, err := client.Post(srv.URL, "text/plain", strings.NewReader("ping"))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ping", string(body))
}

func TestChromeTransport_PlainHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := &http.Client{Transport: transport.NewChromeTransport(time.Second)}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
