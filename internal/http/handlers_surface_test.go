package httpx

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	"github.com/target/hr-dashboard/internal/domain/hr"
	"github.com/target/hr-dashboard/internal/testutil"
)

func TestSurfacePage_DefaultViewLoadsIntoRegion(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "adm", domainauth.RoleAdmin, nil)
	app.backend.JSON(http.MethodGet, "/stats/overview", http.StatusOK, hr.OverviewStats{TotalEmployees: 42, CurrentMonthTotalPayroll: 12345.5})

	rec := app.do(http.MethodGet, "/admin", nil, withSession("adm"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="workspace"`)
	assert.Contains(t, body, `hx-get="/admin/views/users"`)
	assert.Contains(t, body, "user-adm")

	app.workspaces.Wait()
	rec = app.do(http.MethodGet, "/admin/views/dashboard/region", nil, withSession("adm"), withHTMX())
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, ">42<")
	assert.Contains(t, body, "12,345.50")
	assert.NotContains(t, body, "hx-trigger", "a settled region stops polling")

	calls := app.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer tok-adm", calls[0].Authorization)
}

func TestSurfaceView_SwitchesActiveTab(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "adm", domainauth.RoleAdmin, nil)
	app.backend.JSON(http.MethodGet, "/stats/overview", http.StatusOK, hr.OverviewStats{})
	app.backend.JSON(http.MethodGet, "/users", http.StatusOK, []hr.User{{ID: 1, Username: "carol", Role: "admin"}})

	app.do(http.MethodGet, "/admin", nil, withSession("adm"))
	rec := app.do(http.MethodGet, "/admin/views/users", nil, withSession("adm"), withHTMX())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/admin?view=users", rec.Header().Get("Hx-Push-Url"))
	assert.NotContains(t, rec.Body.String(), "<html")
	assert.Contains(t, rec.Body.String(), `class="tab active" aria-current="page">Users`)

	app.workspaces.Wait()
	// The dashboard is no longer active, so its poller gets 204.
	rec = app.do(http.MethodGet, "/admin/views/dashboard/region", nil, withSession("adm"), withHTMX())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(http.MethodGet, "/admin/views/users/region", nil, withSession("adm"), withHTMX())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "carol")
}

func TestSurfaceView_FullPageWithoutHTMX(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "emp", domainauth.RoleEmployee, testutil.IntPtr(5))
	app.backend.JSON(http.MethodGet, "/performance-reviews", http.StatusOK, []hr.PerformanceReview{})

	rec := app.do(http.MethodGet, "/employee/views/performance", nil, withSession("emp"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html")
	app.workspaces.Wait()
}

func TestSurfaceView_UnknownView(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "adm", domainauth.RoleAdmin, nil)

	rec := app.do(http.MethodGet, "/admin/views/compliance", nil, withSession("adm"), withHTMX())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(http.MethodGet, "/admin/views/compliance", nil, withSession("adm"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	rec = app.do(http.MethodGet, "/admin/views/nope/region", nil, withSession("adm"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, app.backend.CallCount())
}

func TestSurfaceView_UnknownViewKeepsActiveView(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "adm", domainauth.RoleAdmin, nil)
	app.backend.JSON(http.MethodGet, "/leaves", http.StatusOK, []hr.LeaveRequest{})

	rec := app.do(http.MethodGet, "/admin/views/leaves?leave_status=pending", nil, withSession("adm"), withHTMX())
	require.Equal(t, http.StatusOK, rec.Code)
	app.workspaces.Wait()

	ws, ok := app.workspaces.Lookup("adm", "admin")
	require.True(t, ok)
	gen := ws.Router.Generation()

	rec = app.do(http.MethodGet, "/admin/views/bogus", nil, withSession("adm"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin?leave_status=pending&view=leaves", rec.Header().Get("Location"))

	rec = app.do(http.MethodGet, "/admin/views/bogus", nil, withSession("adm"), withHTMX())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, "leaves", string(ws.Router.Active()))
	assert.Equal(t, gen, ws.Router.Generation())
}

func TestSurfaceView_FiltersReachBackend(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "adm", domainauth.RoleAdmin, nil)
	app.backend.JSON(http.MethodGet, "/leaves", http.StatusOK, []hr.LeaveRequest{{ID: 3, EmployeeID: 8, Status: hr.LeavePending}})

	rec := app.do(http.MethodGet, "/admin/views/leaves?leave_status=pending&employee_id=8", nil, withSession("adm"), withHTMX())
	require.Equal(t, http.StatusOK, rec.Code)
	app.workspaces.Wait()

	calls := app.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "pending", calls[0].Query.Get("leave_status"))
	assert.Equal(t, "8", calls[0].Query.Get("employee_id"))

	rec = app.do(http.MethodGet, "/admin/views/leaves/region", nil, withSession("adm"), withHTMX())
	body := rec.Body.String()
	assert.Contains(t, body, `hx-post="/admin/views/leaves/actions/approve"`)
	assert.Contains(t, body, `<option value="pending" selected>`)
}

func TestSurfaceAction_ApproveLeaveShowsFlash(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "adm", domainauth.RoleAdmin, nil)
	app.backend.JSON(http.MethodPut, "/leaves/5/approve", http.StatusOK, hr.LeaveRequest{ID: 5, Status: hr.LeaveApproved})
	app.backend.JSON(http.MethodGet, "/leaves", http.StatusOK, []hr.LeaveRequest{})

	rec := app.do(http.MethodPost, "/admin/views/leaves/actions/approve", url.Values{"id": {"5"}}, withSession("adm"), withHTMX())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flash-success")
	assert.Contains(t, rec.Body.String(), "Leave request approved.")
	app.workspaces.Wait()

	var methods []string
	for _, c := range app.backend.Calls() {
		methods = append(methods, c.Method+" "+c.Path)
	}
	assert.Contains(t, methods, "PUT /leaves/5/approve")
	assert.Contains(t, methods, "GET /leaves")
}

func TestSurfaceAction_ValidationNeverCallsBackend(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "emp", domainauth.RoleEmployee, testutil.IntPtr(5))
	app.backend.JSON(http.MethodGet, "/leaves", http.StatusOK, []hr.LeaveRequest{})

	form := url.Values{"start_date": {"2025-03-12"}, "end_date": {"2025-03-10"}}
	rec := app.do(http.MethodPost, "/employee/views/leaves/actions/create", form, withSession("emp"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html")
	assert.Contains(t, rec.Body.String(), "The end date must be on or after the start date.")
	app.workspaces.Wait()

	for _, c := range app.backend.Calls() {
		assert.NotEqual(t, http.MethodPost, c.Method)
	}
}

func TestSurfaceAction_Unknown(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "emp", domainauth.RoleEmployee, testutil.IntPtr(5))

	rec := app.do(http.MethodPost, "/employee/views/leaves/actions/approve", url.Values{"id": {"1"}}, withSession("emp"), withHTMX())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, app.backend.CallCount())
}

func TestSurfaceDownload_StreamsReport(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "adm", domainauth.RoleAdmin, nil)
	body := "PK\x03\x04xlsx"
	app.backend.Handle(http.MethodGet, "/reports/payroll-excel", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte(body))
	})

	rec := app.do(http.MethodGet, "/admin/downloads/payroll-excel?view=payroll", nil, withSession("adm"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename=payroll-excel.xlsx`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, strconv.Itoa(len(body)), rec.Header().Get("Content-Length"))
	assert.Equal(t, body, rec.Body.String())

	calls := app.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer tok-adm", calls[0].Authorization)
}

func TestSurfaceDownload_UnknownReport(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "emp", domainauth.RoleEmployee, testutil.IntPtr(5))

	rec := app.do(http.MethodGet, "/employee/downloads/payroll-excel", nil, withSession("emp"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, app.backend.CallCount())
}

func TestSurfaceDownload_PayslipNeedsMonth(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "emp", domainauth.RoleEmployee, testutil.IntPtr(5))
	app.backend.JSON(http.MethodGet, "/payrolls", http.StatusOK, []hr.Payroll{})

	rec := app.do(http.MethodGet, "/employee/downloads/payroll-slip-pdf?view=payroll", nil, withSession("emp"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "flash-error")
	assert.Contains(t, body, "Choose a payroll month to download.")
	app.workspaces.Wait()

	for _, c := range app.backend.Calls() {
		assert.False(t, strings.HasPrefix(c.Path, "/reports/"), c.Path)
	}
}

func TestSurfaceDownload_PayslipScopedToCaller(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "emp", domainauth.RoleEmployee, testutil.IntPtr(5))
	app.backend.Handle(http.MethodGet, "/reports/payroll-slip-pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="slip-2025-02.pdf"`)
		_, _ = w.Write([]byte("%PDF"))
	})

	rec := app.do(http.MethodGet, "/employee/downloads/payroll-slip-pdf?view=payroll&year=2025&month=2&employee_id=99", nil, withSession("emp"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=slip-2025-02.pdf`, rec.Header().Get("Content-Disposition"))

	calls := app.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "5", calls[0].Query.Get("employee_id"))
	assert.Equal(t, "2", calls[0].Query.Get("month"))
}

func TestSurfaceRegion_LoaderFailureShowsNotice(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "adm", domainauth.RoleAdmin, nil)
	app.backend.Text(http.MethodGet, "/employees", http.StatusInternalServerError, `{"detail":"database offline"}`)

	app.do(http.MethodGet, "/admin/views/employees", nil, withSession("adm"), withHTMX())
	app.workspaces.Wait()

	rec := app.do(http.MethodGet, "/admin/views/employees/region", nil, withSession("adm"), withHTMX())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notice-error")
	assert.Contains(t, rec.Body.String(), "database offline")
}

func TestSurfaceRegion_AuthRejectionEndsSession(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, "adm", domainauth.RoleAdmin, nil)
	app.backend.Text(http.MethodGet, "/users", http.StatusUnauthorized, `{"detail":"Token expired"}`)

	app.do(http.MethodGet, "/admin/views/users", nil, withSession("adm"), withHTMX())
	app.workspaces.Wait()
	assert.Zero(t, app.store.Len())

	rec := app.do(http.MethodGet, "/admin/views/users/region", nil, withSession("adm"), withHTMX())
	assert.Equal(t, "/auth/login", rec.Header().Get("Hx-Redirect"))
}
