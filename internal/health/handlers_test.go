package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/health"
)

func ok(context.Context) error { return nil }

func readyStatus(t *testing.T, h health.Handler) (int, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var status map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	return rr.Code, status
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReadySuccess(t *testing.T) {
	code, status := readyStatus(t, health.Handler{Probes: []health.Probe{
		{Name: "catalog", Check: ok},
		{Name: "redis", Check: ok, Timeout: 50 * time.Millisecond},
	}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, map[string]string{"server": "ok", "catalog": "ok", "redis": "ok"}, status)
}

func TestReadyReportsFailingProbe(t *testing.T) {
	code, status := readyStatus(t, health.Handler{Probes: []health.Probe{
		{Name: "catalog", Check: ok},
		{Name: "postgres", Check: func(context.Context) error { return errors.New("connection refused") }},
	}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "ok", status["catalog"])
	require.Equal(t, "connection refused", status["postgres"])
}

func TestReadyProbeTimeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	code, status := readyStatus(t, health.Handler{Probes: []health.Probe{
		{Name: "redis", Check: slow, Timeout: 10 * time.Millisecond},
	}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, context.DeadlineExceeded.Error(), status["redis"])
}
