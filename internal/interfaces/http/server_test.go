package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cascade/internal/application/cascade"
	"github.com/sawpanic/cascade/internal/data/records"
	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/history"
	"github.com/sawpanic/cascade/internal/metrics"
	"github.com/sawpanic/cascade/internal/persistence"
)

var fixedNow = time.Date(2026, 6, 10, 20, 0, 0, 0, time.UTC)

const cascadeBody = `{
  "record": {
    "date": "2026-06-10",
    "meals": [{"time": "08:00", "items": [{"food_id": "oats", "grams": 80, "calories": 450}]}],
    "steps": 9000,
    "sleep_onset": "23:00",
    "sleep_hours": 7.5
  },
  "at": "2026-06-10T20:00:00Z"
}`

type brokenHistory struct{}

func (brokenHistory) Load(context.Context) (history.History, error) {
	return nil, errors.New("redis down")
}
func (brokenHistory) Key() string  { return "test-dcs-v4" }
func (brokenHistory) Version() int { return 4 }

type fixture struct {
	server  *Server
	repo    *persistence.HistoryRepo
	metrics *metrics.Registry
}

func newFixture(t *testing.T, cfg ServerConfig, opts ...HandlerOption) fixture {
	t.Helper()
	repo := persistence.NewHistoryRepo(persistence.NewMemory(), 4, "test", 35)
	m := metrics.New(nil)
	engine := cascade.NewEngine(nil, repo, cascade.WithMetrics(m))
	h := NewHandlers(engine, cascade.NewMemoizer(8, m), repo, opts...)
	h.now = func() time.Time { return fixedNow }
	return fixture{server: NewServer(cfg, h, m), repo: repo, metrics: m}
}

func testConfig() ServerConfig {
	return ServerConfig{Host: "127.0.0.1", Port: 0, RPS: 100, Burst: 100, RequestTimeout: time.Second}
}

func (f fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rr, req)
	return rr
}

func TestCascadeEndpoint(t *testing.T) {
	f := newFixture(t, testConfig())

	rr := f.do(http.MethodPost, "/v1/cascade", cascadeBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	var res cascade.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "2026-06-10", res.Date)
	assert.NotEmpty(t, res.Events)
	assert.NotEmpty(t, res.State)
	assert.Contains(t, res.History, "2026-06-10")
}

func TestCascadeEndpoint_BadRequests(t *testing.T) {
	f := newFixture(t, testConfig())

	cases := []struct {
		name string
		body string
		code string
	}{
		{"malformed", `{"record":`, "invalid_body"},
		{"unknown field", `{"recrod":{}}`, "invalid_body"},
		{"missing record", `{}`, "missing_record"},
		{"bad date", `{"record":{"date":"10.06.2026"}}`, "invalid_record"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(http.MethodPost, "/v1/cascade", tc.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var e ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
			assert.Equal(t, tc.code, e.Code)
			assert.Equal(t, rr.Header().Get("X-Request-ID"), e.RequestID)
		})
	}
}

func TestCascadeEndpoint_WindowFromRecords(t *testing.T) {
	store, err := records.NewStore(
		&day.Record{Date: "2026-06-09", Steps: 8000},
		&day.Record{Date: "2026-06-07", Steps: 6000},
	)
	require.NoError(t, err)
	f := newFixture(t, testConfig(), WithRecords(store, 30))

	rr := f.do(http.MethodPost, "/v1/cascade", cascadeBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res cascade.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, []string{"2026-06-09", "2026-06-07"}, res.BackfilledDates)
}

func TestHistoryEndpoint(t *testing.T) {
	f := newFixture(t, testConfig())
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/cascade", cascadeBody).Code)

	rr := f.do(http.MethodGet, "/v1/history", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "test-dcs-v4", resp.Key)
	assert.Equal(t, 4, resp.Version)
	assert.Equal(t, 1, resp.Days)
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t, testConfig(), WithVersion("v1.2.3"))
	rr := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "v1.2.3", resp.Version)
	assert.Equal(t, "pass", resp.Checks["history_store"].Status)

	engine := cascade.NewEngine(nil, nil)
	h := NewHandlers(engine, nil, brokenHistory{})
	s := NewServer(testConfig(), h, nil)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "redis down", resp.Checks["history_store"].Message)

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, testConfig())
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "").Code)

	rr := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `cascade_http_requests_total{code="200",route="/health"} 1`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RPS = 0.001
	cfg.Burst = 1
	f := newFixture(t, cfg)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "").Code)
	rr := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, testConfig())
	rr := f.do(http.MethodGet, "/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
	assert.Equal(t, "endpoint_not_found", e.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	f := newFixture(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rr := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "abc123", rr.Header().Get("X-Request-ID"))
}
