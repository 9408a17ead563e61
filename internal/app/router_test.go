package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/app"
	"github.com/noah-isme/toko-checkout/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:            "test",
		CatalogBackend:    config.BackendMemory,
		SeedFile:          filepath.Join("..", "..", "configs", "supermarket.yaml"),
		ReceiptColumns:    40,
		RateLimitCheckout: "2-M",
		BodyLimitBytes:    4096,
		SecurityHeaders:   true,
		Breaker:           config.BreakerConfig{MinRequests: 5, FailureRatio: 0.5, OpenFor: time.Second},
		Obs: config.ObsConfig{
			MetricsNamespace: "toko_app_test",
			EnablePrometheus: true,
		},
	}
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := testConfig()
	lim, err := app.NewLimiter(nil, cfg.RateLimitCheckout)
	require.NoError(t, err)
	registry := prometheus.NewRegistry()
	deps := &app.Dependencies{
		Config:          cfg,
		Logger:          zerolog.Nop(),
		Validator:       app.NewValidator(),
		Limiter:         lim,
		MetricsRegistry: registry,
		Gatherer:        registry,
	}
	store, err := app.BuildStore(context.Background(), deps)
	require.NoError(t, err)
	return app.NewRouter(deps, store)
}

func TestRouterCheckoutWithSeededOffers(t *testing.T) {
	srv := newServer(t)
	body := `{"items":[
		{"name":"toothbrush","unit":"each"},
		{"name":"tea bag","unit":"each","quantity":3},
		{"name":"apples","unit":"kilo","quantity":2},
		{"name":"rice","unit":"kilo","quantity":5}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout?format=text", strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.True(t, strings.HasSuffix(rr.Body.String(), "Total:                             10.45\n"), rr.Body.String())
	require.NotEmpty(t, rr.Header().Get("X-Receipt-ID"))
}

func TestRouterRateLimitsCheckout(t *testing.T) {
	srv := newServer(t)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"items":[]}`)))
		codes = append(codes, rr.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Read-only routes are not limited.
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/offers", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	srv := newServer(t)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var status map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	require.Equal(t, "ok", status["server"])

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "toko_app_test_http_requests_total")
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestBuildStoreRejectsRemoteBackendWithoutClients(t *testing.T) {
	for _, backend := range []string{config.BackendRedis, config.BackendPostgres} {
		cfg := testConfig()
		cfg.CatalogBackend = backend
		_, err := app.BuildStore(context.Background(), &app.Dependencies{Config: cfg, Logger: zerolog.Nop()})
		require.Error(t, err, backend)
	}
}
