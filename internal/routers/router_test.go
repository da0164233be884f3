package routers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codecollab/internal/api"
	"codecollab/internal/assist"
	"codecollab/internal/assist/prompts"
	"codecollab/internal/assist/speech"
	"codecollab/internal/config"
	"codecollab/internal/events"
	"codecollab/internal/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{
		WSPath:          "/ws",
		AllowedOrigins:  []string{"http://localhost:5173"},
		SendBuffer:      8,
		MaxMessageBytes: 1 << 16,
	}
	hub := session.NewHub(log, session.RandomColor)
	pm, err := prompts.NewPromptManager()
	require.NoError(t, err)

	h := api.NewHandlers(log, api.Deps{
		Config:     cfg,
		Hub:        hub,
		Dispatcher: session.NewDispatcher(hub, session.NewRegistry(hub.Exists), events.NopPublisher{}, log),
		Assist:     assist.NewService(nil, pm, log),
		Speech:     speech.NewService(speech.Config{}, log),
	})

	server := httptest.NewServer(New(cfg, h))
	t.Cleanup(func() {
		server.Close()
		hub.Shutdown()
	})
	return server
}

func TestRouterHealthEndpoints(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/healthz", "/api/v1/healthz"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRouterRoutes(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/v1/sessions", "", http.StatusOK},
		{http.MethodGet, "/api/v1/sessions/missing", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/webrtc/config", "", http.StatusOK},
		{http.MethodPost, "/api/v1/assist/explain", `{"code":"x = 1","language":"python"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/assist/optimize", `{"code":"x = 1","language":"python"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/assist/audit", `{"code":"x = 1","language":"python"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/assist/explain", `{"language":"python"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/assist/scan", `{"code":"x = 1","language":"python"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/assist/speech", `{"text":"hello"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/history/u1", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/sessions")
	require.NoError(t, err)
	resp.Body.Close()

	metricsResp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `codecollab_http_requests_total{method="GET",path="/api/v1/sessions",service="collab",status="200"}`)
}

func TestRouterCORS(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/v1/assist/scan", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
