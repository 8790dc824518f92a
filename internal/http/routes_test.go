package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/hr-dashboard/internal/adapters/memory"
	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	"github.com/target/hr-dashboard/internal/feature"
	"github.com/target/hr-dashboard/internal/guard"
	"github.com/target/hr-dashboard/internal/hrapi"
	"github.com/target/hr-dashboard/internal/observability/metrics"
	"github.com/target/hr-dashboard/internal/service"
	"github.com/target/hr-dashboard/internal/testutil"
)

const (
	testCookie    = "hrdash_session"
	testCSRFToken = "csrf-test-token"
)

type testApp struct {
	backend    *testutil.Backend
	store      *memory.SessionStore
	workspaces *feature.Registry
	metrics    *metrics.Metrics
	handler    http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	app := &testApp{
		backend: testutil.NewBackend(t),
		store:   memory.NewSessionStore(time.Hour),
		metrics: metrics.New(),
	}
	api, err := hrapi.New(hrapi.Options{BaseURL: app.backend.URL, Observer: app.metrics})
	require.NoError(t, err)

	auth := service.NewAuthService(service.AuthServiceOptions{
		Identity:   hrapi.Identity{Client: api},
		Sessions:   app.store,
		SessionTTL: time.Hour,
	})
	app.workspaces = feature.NewRegistry(feature.Deps{
		API:      api,
		Sessions: app.store,
		Metrics:  app.metrics,
		Now:      testutil.FixedTimeFunc(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)),
		OnAuthRejected: func(ctx context.Context, id string) {
			_ = auth.Invalidate(ctx, id)
		},
	})

	app.handler, err = NewRouter(RouterServices{
		Auth:        auth,
		Workspaces:  app.workspaces,
		Surfaces:    feature.Surfaces(),
		Guard:       guard.New(guard.EntryPoints{Login: "/auth/login", Admin: "/admin", Employee: "/employee"}),
		Cookie:      SessionCookie{Name: testCookie},
		Metrics:     app.metrics,
		MetricsPath: "/metrics",
	})
	require.NoError(t, err)
	return app
}

// signIn stores a session directly, bypassing the login flow.
func (a *testApp) signIn(t *testing.T, id string, role domainauth.Role, employeeID *int) {
	t.Helper()
	require.NoError(t, a.store.Save(context.Background(), domainauth.Session{
		ID:    id,
		Token: "tok-" + id,
		User:  domainauth.UserProfile{Username: "user-" + id, Role: role, EmployeeID: employeeID},
	}))
}

type reqOpt func(*http.Request)

func withSession(id string) reqOpt {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: testCookie, Value: id}) }
}

func withHTMX() reqOpt {
	return func(r *http.Request) { r.Header.Set("HX-Request", "true") }
}

// withCSRF sends a matching token cookie and header.
func withCSRF(token string) reqOpt {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})
		r.Header.Set(DefaultCSRFHeaderName, token)
	}
}

// do sends a request the way a page served by the router would, attaching the
// CSRF token to state-changing methods.
func (a *testApp) do(method, target string, form url.Values, opts ...reqOpt) *httptest.ResponseRecorder {
	if isUnsafeMethod(method) {
		opts = append([]reqOpt{withCSRF(testCSRFToken)}, opts...)
	}
	return a.doRaw(method, target, form, opts...)
}

func (a *testApp) doRaw(method, target string, form url.Values, opts ...reqOpt) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRouter_RootRedirectsToLogin(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = app.do(http.MethodHead, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Zero(t, app.backend.CallCount())
}

func TestRouter_StaticAssets(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/static/css/app.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), ".calendar")
}

func TestRouter_Metrics(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodGet, "/admin", nil)

	rec := app.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthenticated")
}

func TestRouter_TemplateOverride(t *testing.T) {
	_, err := NewRouter(RouterServices{
		Guard:      guard.New(guard.EntryPoints{Login: "/auth/login", Admin: "/admin", Employee: "/employee"}),
		TemplateFS: fstest.MapFS{},
	})
	require.Error(t, err)
}
