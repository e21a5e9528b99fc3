package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cti-console/cti-console/internal/app"
	"github.com/cti-console/cti-console/internal/dashboard"
	dashboardhttp "github.com/cti-console/cti-console/internal/dashboard/http"
	"github.com/cti-console/cti-console/internal/export"
	exporthttp "github.com/cti-console/cti-console/internal/export/http"
	"github.com/cti-console/cti-console/internal/lookup"
	lookuphttp "github.com/cti-console/cti-console/internal/lookup/http"
	"github.com/cti-console/cti-console/internal/observability"
	"github.com/cti-console/cti-console/internal/shared"
	"github.com/cti-console/cti-console/internal/threatapi"
	"github.com/cti-console/cti-console/internal/view"
	_ "github.com/cti-console/cti-console/testing"
)

var csrfField = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type fixedSnapshot struct{}

func (fixedSnapshot) Snapshot() dashboard.Snapshot {
	return dashboard.Snapshot{
		Counters: dashboard.Counters{Total: "3", High: "1", Medium: "1", Low: "1"},
		Outcome:  dashboard.OutcomeOK,
	}
}

type cleanLookups struct{}

func (cleanLookups) Lookup(context.Context, string) (threatapi.LookupResult, error) {
	return threatapi.LookupResult{Status: "clean"}, nil
}

func (cleanLookups) Tag(context.Context, string, string) ([]string, error) {
	return []string{"benign"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWith(t, cleanLookups{}, 5*time.Second)
}

func newTestRouterWith(t *testing.T, service lookup.Service, requestTimeout time.Duration) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	sessions := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "cti_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	require.NoError(t, err)
	store, err := lookup.NewStore(service, nil, 4)
	require.NoError(t, err)

	return app.NewRouter(app.RouterParams{
		Logger:           app.NewLogger(&app.Config{LogFormat: "json"}),
		Config:           &app.Config{AppEnv: "test", AppRequestTimeout: requestTimeout},
		SessionManager:   sessions,
		CSRFManager:      csrf,
		DashboardHandler: dashboardhttp.NewHandler(nil, fixedSnapshot{}, templates),
		LookupHandler:    lookuphttp.NewHandler(nil, store, templates, csrf),
		ExportHandler:    exporthttp.NewHandler(nil, export.NewTrigger(threatapi.NewClient("http://127.0.0.1:0", time.Second), nil), templates, csrf),
		Metrics:          observability.NewMetrics(),
		Health: func() map[string]string {
			return map[string]string{"stats": "ok"}
		},
	})
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"status": "ok", "stats": "ok"}, body)
	assert.Empty(t, rr.Result().Cookies())
}

func TestStaticAssetsAreCached(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/css/console.css", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")
}

func TestPagesCarrySessionAndSecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/", "/lookup", "/export"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"), path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"), path)
		require.NotEmpty(t, rr.Result().Cookies(), path)
		assert.Equal(t, "cti_session", rr.Result().Cookies()[0].Name, path)
	}
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	router := newTestRouter(t)

	get := httptest.NewRecorder()
	router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/lookup", nil))
	require.Equal(t, http.StatusOK, get.Code)
	match := csrfField.FindStringSubmatch(get.Body.String())
	require.Len(t, match, 2)
	cookie := get.Result().Cookies()[0]

	submit := func(token string) *httptest.ResponseRecorder {
		form := url.Values{"query": {"example.com"}, shared.CSRFFormField: {token}}
		req := httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusForbidden, submit("forged").Code)

	rr := submit(match[1])
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/lookup", rr.Header().Get("Location"))

	page := httptest.NewRequest(http.MethodGet, "/lookup", nil)
	page.AddCookie(cookie)
	after := httptest.NewRecorder()
	router.ServeHTTP(after, page)
	assert.Contains(t, after.Body.String(), `<span id="status-text">CLEAN</span>`)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	warm := httptest.NewRecorder()
	router.ServeHTTP(warm, httptest.NewRequest(http.MethodGet, "/dashboard/snapshot", nil))
	require.Equal(t, http.StatusOK, warm.Code)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `cti_console_http_requests_total{code="200",route="/dashboard/snapshot"} 1`)
}

type deadlineLookups struct {
	cleanLookups
	deadlines chan time.Time
}

func (d deadlineLookups) Lookup(ctx context.Context, query string) (threatapi.LookupResult, error) {
	deadline, _ := ctx.Deadline()
	d.deadlines <- deadline
	return d.cleanLookups.Lookup(ctx, query)
}

func TestRequestTimeoutBoundsUpstreamCalls(t *testing.T) {
	service := deadlineLookups{deadlines: make(chan time.Time, 1)}
	router := newTestRouterWith(t, service, 2*time.Second)

	get := httptest.NewRecorder()
	router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/lookup", nil))
	match := csrfField.FindStringSubmatch(get.Body.String())
	require.Len(t, match, 2)

	form := url.Values{"query": {"example.com"}, shared.CSRFFormField: {match[1]}}
	req := httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(get.Result().Cookies()[0])
	started := time.Now()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusSeeOther, rr.Code)

	deadline := <-service.deadlines
	require.False(t, deadline.IsZero(), "lookup context should carry a deadline")
	assert.WithinDuration(t, started.Add(2*time.Second), deadline, time.Second)
}
