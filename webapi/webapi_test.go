package webapi_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/webapi"
	"github.com/yieldvault/ledger/webapi/testutils"
)

func TestHealth(t *testing.T) {
	h := testutils.NewHarness(t)
	resp := h.Do(http.MethodGet, "/", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "running")
}

func TestMetricsEndpoint(t *testing.T) {
	h := testutils.NewHarness(t)
	h.Do(http.MethodGet, "/plans", nil, "")

	resp := h.Do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ledger_http_requests_total{code="200",method="GET",route="/plans"}`)
}

func TestUnknownRouteIsProblem(t *testing.T) {
	h := testutils.NewHarness(t)
	resp := h.Do(http.MethodGet, "/nope", nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	p := testutils.DecodeProblem(t, resp)
	assert.Equal(t, fiber.StatusNotFound, p.Status)
}

func TestRateLimit(t *testing.T) {
	h := testutils.NewHarness(t)
	h.Core.Config.RateLimit = &config.RateLimit{MaxRequests: 2, Window: time.Minute}
	app := webapi.SetupApp(h.Core)

	get := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/plans", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, get("203.0.113.7"))
	assert.Equal(t, fiber.StatusOK, get("203.0.113.7"))
	assert.Equal(t, fiber.StatusTooManyRequests, get("203.0.113.7"))
	assert.Equal(t, fiber.StatusOK, get("198.51.100.4"), "limits are per client")
}
