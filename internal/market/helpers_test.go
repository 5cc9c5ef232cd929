package market_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"CampusMart/internal/access"
	"CampusMart/internal/auth"
	"CampusMart/internal/listing"
	"CampusMart/internal/market"
)

const (
	testSecret       = "0123456789abcdef0123456789abcdef"
	testMetricsToken = "scrape-me"
)

type tsConfig struct {
	latency   access.Latency
	timeout   time.Duration
	loginRate int
}

func newMarketTS(t *testing.T, cfg tsConfig) *httptest.Server {
	t.Helper()

	svc := access.NewService(listing.NewStore(), access.Options{
		Latency: cfg.latency,
		Gate:    auth.NewDomainGate(auth.DefaultEmailDomain),
	})

	s := &market.Server{
		Access:  svc,
		Tokens:  auth.NewTokenMaker(testSecret),
		Timeout: cfg.timeout,
	}

	h := market.NewHandler(s, market.HTTPDeps{
		Log:             zap.NewNop(),
		Service:         "marketplace",
		Registry:        prometheus.NewRegistry(),
		MetricsEnabled:  true,
		MetricsToken:    testMetricsToken,
		LoginRatePerMin: cfg.loginRate,
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func login(t *testing.T, baseURL, email, name string) string {
	t.Helper()

	resp, raw := doJSON(t, http.MethodPost, baseURL+"/auth/login", map[string]any{
		"email": email,
		"name":  name,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var lr struct {
		AccessToken string    `json:"access_token"`
		User        auth.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(raw, &lr))
	require.NotEmpty(t, lr.AccessToken)
	return lr.AccessToken
}

func decodeListings(t *testing.T, raw []byte) []string {
	t.Helper()

	var ls []listing.Listing
	require.NoError(t, json.Unmarshal(raw, &ls), string(raw))
	ids := make([]string, len(ls))
	for i, l := range ls {
		ids[i] = l.ID
	}
	return ids
}
