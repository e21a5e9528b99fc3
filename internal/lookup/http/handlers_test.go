package lookuphttp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cti-console/cti-console/internal/lookup"
	lookuphttp "github.com/cti-console/cti-console/internal/lookup/http"
	"github.com/cti-console/cti-console/internal/shared"
	"github.com/cti-console/cti-console/internal/threatapi"
	"github.com/cti-console/cti-console/internal/view"
	_ "github.com/cti-console/cti-console/testing"
)

type stubService struct {
	result   threatapi.LookupResult
	err      error
	tags     []string
	tagCalls int
}

func (s *stubService) Lookup(context.Context, string) (threatapi.LookupResult, error) {
	return s.result, s.err
}

func (s *stubService) Tag(context.Context, string, string) ([]string, error) {
	s.tagCalls++
	return s.tags, nil
}

type env struct {
	router   http.Handler
	sessions *shared.SessionManager
	store    *lookup.Store
	cookie   *http.Cookie
}

func newEnv(t *testing.T, service *stubService) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	store, err := lookup.NewStore(service, nil, 8)
	require.NoError(t, err)

	r := chi.NewRouter()
	lookuphttp.NewHandler(nil, store, templates, shared.NewCSRFManager("csrfsecret")).MountRoutes(r)
	return &env{router: r, sessions: sessions, store: store}
}

// do serves req inside a session, committing it afterwards the way the
// middleware stack does.
func (e *env) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	sess, err := e.sessions.Load(context.Background(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	require.NoError(t, e.sessions.Commit(ctx, rr, req, sess))
	e.cookie = &http.Cookie{Name: e.sessions.CookieName(), Value: sess.ID}
	return rr
}

func post(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLookupPageStartsIdle(t *testing.T) {
	e := newEnv(t, &stubService{})

	rr := e.do(t, httptest.NewRequest(http.MethodGet, "/lookup", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `id="lookup-form"`)
	assert.Contains(t, body, `<div id="results" class="d-none">`)
	assert.Contains(t, body, `name="csrf_token" value="`)
}

func TestSubmitRedirectsAndRendersResult(t *testing.T) {
	score := 85.0
	country := "RU"
	e := newEnv(t, &stubService{result: threatapi.LookupResult{
		Status:      "malicious",
		ThreatScore: &score,
		Country:     &country,
		Tags:        []string{"botnet"},
	}})

	rr := e.do(t, post("/lookup", url.Values{lookuphttp.FieldQuery: {" 1.2.3.4 "}}))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/lookup", rr.Header().Get("Location"))

	body := e.do(t, httptest.NewRequest(http.MethodGet, "/lookup", nil)).Body.String()
	assert.Contains(t, body, `<div id="results" class="">`)
	assert.Contains(t, body, `<div id="status-alert" class="alert alert-danger"><span id="status-text">MALICIOUS</span>`)
	assert.Contains(t, body, `id="threat-score">85<`)
	assert.Contains(t, body, `id="country">RU<`)
	assert.Contains(t, body, `value="1.2.3.4"`)
	assert.Equal(t, 1, e.store.Len())
}

func TestSubmitBlankQueryFlashesWarning(t *testing.T) {
	service := &stubService{}
	e := newEnv(t, service)

	rr := e.do(t, post("/lookup", url.Values{lookuphttp.FieldQuery: {"  "}}))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	body := e.do(t, httptest.NewRequest(http.MethodGet, "/lookup", nil)).Body.String()
	assert.Contains(t, body, `<div class="alert alert-warning" role="alert" id="flash">`+lookup.MsgQueryRequired+`</div>`)
	assert.Contains(t, body, `<div id="results" class="d-none">`)

	body = e.do(t, httptest.NewRequest(http.MethodGet, "/lookup", nil)).Body.String()
	assert.NotContains(t, body, `id="flash"`)
}

func TestSubmitFailureRendersErrorBanner(t *testing.T) {
	e := newEnv(t, &stubService{err: &threatapi.StatusError{Op: "lookup", StatusCode: http.StatusBadGateway}})

	e.do(t, post("/lookup", url.Values{lookuphttp.FieldQuery: {"example.com"}}))
	body := e.do(t, httptest.NewRequest(http.MethodGet, "/lookup", nil)).Body.String()

	assert.Contains(t, body, `<strong>Error:</strong> <span id="status-text">HTTP 502: Bad Gateway</span>`)
	assert.Contains(t, body, `id="threat-score">N/A<`)
	assert.Equal(t, 2, strings.Count(body, "No data available"))
}

func TestAddTagWithoutLookupWarns(t *testing.T) {
	service := &stubService{tags: []string{"phishing"}}
	e := newEnv(t, service)

	rr := e.do(t, post("/lookup/tag", url.Values{lookuphttp.FieldTag: {"phishing"}}))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Zero(t, service.tagCalls)

	body := e.do(t, httptest.NewRequest(http.MethodGet, "/lookup", nil)).Body.String()
	assert.Contains(t, body, lookup.MsgTagRequired)
}

func TestAddTagReplacesDisplayedTags(t *testing.T) {
	service := &stubService{
		result: threatapi.LookupResult{Status: "suspicious", Tags: []string{"scanner"}},
		tags:   []string{"scanner", "phishing"},
	}
	e := newEnv(t, service)

	e.do(t, post("/lookup", url.Values{lookuphttp.FieldQuery: {"example.com"}}))
	e.do(t, post("/lookup/tag", url.Values{lookuphttp.FieldTag: {"phishing"}}))
	body := e.do(t, httptest.NewRequest(http.MethodGet, "/lookup", nil)).Body.String()

	assert.Equal(t, 1, service.tagCalls)
	assert.Contains(t, body, `<div class="alert alert-success" role="alert" id="flash">`+lookup.MsgTagAdded+`</div>`)
	assert.Contains(t, body, `<span class="badge bg-secondary me-1">phishing</span>`)
	assert.Contains(t, body, `id="manual-tag" name="manual-tag" value=""`)
}
