package httpx

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	"github.com/target/hr-dashboard/internal/testutil"
)

func credentials(user, pass string) url.Values {
	return url.Values{"username": {user}, "password": {pass}}
}

func TestLoginPage_RendersForm(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/auth/login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/auth/login"`)
	assert.Contains(t, body, `name="password"`)
	assert.Contains(t, body, "htmx.org")
	assert.Zero(t, app.backend.CallCount())
}

func TestLoginPage_ValidSessionGoesHome(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "s1", domainauth.RoleEmployee, testutil.IntPtr(3))
	app.backend.JSON(http.MethodGet, "/auth/me", http.StatusOK, map[string]any{"username": "user-s1", "role": "employee", "employee_id": 3})

	rec := app.do(http.MethodGet, "/auth/login", nil, withSession("s1"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/employee", rec.Header().Get("Location"))
}

func TestLoginPage_RejectedSessionShowsForm(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "s1", domainauth.RoleAdmin, nil)
	app.backend.Text(http.MethodGet, "/auth/me", http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)

	rec := app.do(http.MethodGet, "/auth/login", nil, withSession("s1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="username"`)
	assert.Zero(t, app.store.Len())
	ck := findCookie(rec, testCookie)
	require.NotNil(t, ck)
	assert.Negative(t, ck.MaxAge)
}

func TestLogin_SuccessStoresSessionAndRedirects(t *testing.T) {
	app := newTestApp(t)
	app.backend.JSON(http.MethodPost, "/auth/login", http.StatusOK, map[string]any{"access_token": "abc", "token_type": "bearer"})
	app.backend.JSON(http.MethodGet, "/auth/me", http.StatusOK, map[string]any{"username": "ann", "role": "admin"})

	rec := app.do(http.MethodPost, "/auth/login", credentials("ann", "secret"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	ck := findCookie(rec, testCookie)
	require.NotNil(t, ck)
	assert.NotEmpty(t, ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.NotContains(t, ck.Value, "abc")
	assert.Equal(t, 1, app.store.Len())

	calls := app.backend.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Body, "grant_type=password")
	assert.Contains(t, calls[0].Body, "username=ann")
	assert.Equal(t, "Bearer abc", calls[1].Authorization)
}

func TestLogin_HTMXUsesRedirectHeader(t *testing.T) {
	app := newTestApp(t)
	app.backend.JSON(http.MethodPost, "/auth/login", http.StatusOK, map[string]any{"access_token": "abc", "token_type": "bearer"})
	app.backend.JSON(http.MethodGet, "/auth/me", http.StatusOK, map[string]any{"username": "eve", "role": "employee", "employee_id": 4})

	rec := app.do(http.MethodPost, "/auth/login", credentials("eve", "pw"), withHTMX())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/employee", rec.Header().Get("Hx-Redirect"))
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(app *testApp)
		form       url.Values
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing password",
			form:       credentials("ann", ""),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "Please enter your username and password.",
		},
		{
			name: "bad credentials",
			setup: func(app *testApp) {
				app.backend.Text(http.MethodPost, "/auth/login", http.StatusUnauthorized, `{"detail":"Incorrect username or password"}`)
			},
			form:       credentials("ann", "nope"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Incorrect username or password",
		},
		{
			name: "unknown role",
			setup: func(app *testApp) {
				app.backend.JSON(http.MethodPost, "/auth/login", http.StatusOK, map[string]any{"access_token": "abc", "token_type": "bearer"})
				app.backend.JSON(http.MethodGet, "/auth/me", http.StatusOK, map[string]any{"username": "ann", "role": "auditor"})
			},
			form:       credentials("ann", "pw"),
			wantStatus: http.StatusForbidden,
			wantBody:   "Your account has no access to the HR dashboard.",
		},
		{
			name: "backend down",
			setup: func(app *testApp) {
				app.backend.Text(http.MethodPost, "/auth/login", http.StatusInternalServerError, "oops")
			},
			form:       credentials("ann", "pw"),
			wantStatus: http.StatusBadGateway,
			wantBody:   "Sign-in is unavailable right now.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			if tt.setup != nil {
				tt.setup(app)
			}
			rec := app.do(http.MethodPost, "/auth/login", tt.form)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.Contains(t, rec.Body.String(), `value="ann"`)
			assert.Nil(t, findCookie(rec, testCookie))
			assert.Zero(t, app.store.Len())
		})
	}
}

func TestLogout_ClearsEverything(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "s1", domainauth.RoleAdmin, nil)
	app.backend.JSON(http.MethodGet, "/stats/overview", http.StatusOK, map[string]any{"total_employees": 1})

	require.Equal(t, http.StatusOK, app.do(http.MethodGet, "/admin", nil, withSession("s1")).Code)
	app.workspaces.Wait()
	assert.Equal(t, 1, app.workspaces.Len())

	rec := app.do(http.MethodPost, "/auth/logout", nil, withSession("s1"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	assert.Zero(t, app.store.Len())
	assert.Zero(t, app.workspaces.Len())
	ck := findCookie(rec, testCookie)
	require.NotNil(t, ck)
	assert.Negative(t, ck.MaxAge)

	// The old cookie no longer opens the surface.
	rec = app.do(http.MethodGet, "/admin", nil, withSession("s1"))
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func TestStatus(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/auth/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	app.signIn(t, "s1", domainauth.RoleEmployee, testutil.IntPtr(9))
	rec = app.do(http.MethodGet, "/auth/status", nil, withSession("s1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Authenticated bool   `json:"authenticated"`
		Home          string `json:"home"`
		User          struct {
			Username   string `json:"username"`
			Role       string `json:"role"`
			EmployeeID int    `json:"employee_id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Authenticated)
	assert.Equal(t, "/employee", got.Home)
	assert.Equal(t, "employee", got.User.Role)
	assert.Equal(t, 9, got.User.EmployeeID)
	assert.Zero(t, app.backend.CallCount())
}
