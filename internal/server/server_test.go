package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecourts-fetcher-be/internal/bootstrap"
	"ecourts-fetcher-be/internal/config"
	"ecourts-fetcher-be/internal/pkg/serverutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backendURL string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "test",
			LogFilePath:        filepath.Join(dir, "app.log"),
			FetchLogFilePath:   filepath.Join(dir, "fetch.log"),
			CorsAllowedOrigins: "*",
		},
		Backend: config.BackendConfig{
			BaseURL:        backendURL,
			RequestTimeout: 5 * time.Second,
			RunTTL:         time.Minute,
			RunLogTTL:      time.Minute,
		},
		Events: config.EventsConfig{OutcomeTopic: "FETCH_OUTCOME"},
	}
}

func newScraper(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/fetch_by_cnr_init":
			_, _ = io.WriteString(w, `{"captcha_required": true, "captcha_image": "iVBORw0KGgo=", "session_id": "s1"}`)
		case "/fetch_by_cnr_submit":
			_, _ = io.WriteString(w, `{"case_info": {"Case Type": "CS"}, "pdfs": []}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func decode(t *testing.T, resp *http.Response) serverutils.Response {
	t.Helper()
	defer resp.Body.Close()
	var out serverutils.Response
	data, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestServer_CnrFlowWithoutInfrastructure(t *testing.T) {
	cfg := testConfig(t, newScraper(t).URL)
	container := bootstrap.NewContainer(nil, cfg)
	t.Cleanup(container.Close)
	app := New(cfg, container).GetApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req := httptest.NewRequest("POST", "/api/fetch/cnr", strings.NewReader(`{"cnr":"WXYZ5678"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)
	started := decode(t, resp).Data.(map[string]interface{})
	runId := started["run_id"].(string)
	assert.Equal(t, "pending", started["state"])

	req = httptest.NewRequest("POST", "/api/fetch/runs/"+runId+"/submit", strings.NewReader(`{"captcha":"ab12"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	done := decode(t, resp).Data.(map[string]interface{})
	assert.Equal(t, "resolved", done["state"])
	assert.Equal(t, "case_found", done["outcome"].(map[string]interface{})["kind"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/fetch/history", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestServer_AuthEnabledRejectsAnonymous(t *testing.T) {
	cfg := testConfig(t, newScraper(t).URL)
	cfg.Auth = config.AuthConfig{Enabled: true, JwtSecret: "secret"}
	container := bootstrap.NewContainer(nil, cfg)
	t.Cleanup(container.Close)
	app := New(cfg, container).GetApp()

	req := httptest.NewRequest("POST", "/api/fetch/cnr", strings.NewReader(`{"cnr":"WXYZ5678"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}
