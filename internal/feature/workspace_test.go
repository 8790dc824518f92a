package feature

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/hr-dashboard/internal/adapters/memory"
	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	"github.com/target/hr-dashboard/internal/domain/hr"
	"github.com/target/hr-dashboard/internal/hrapi"
	"github.com/target/hr-dashboard/internal/observability/metrics"
	"github.com/target/hr-dashboard/internal/testutil"
	"github.com/target/hr-dashboard/internal/view"
)

type harness struct {
	backend  *testutil.Backend
	store    *memory.SessionStore
	metrics  *metrics.Metrics
	sess     domainauth.Session
	rejected atomic.Int32
	deps     Deps
}

func newHarness(t *testing.T, role domainauth.Role, employeeID *int) *harness {
	t.Helper()
	h := &harness{
		backend: testutil.NewBackend(t),
		store:   memory.NewSessionStore(time.Hour),
		metrics: metrics.New(),
	}
	api, err := hrapi.New(hrapi.Options{BaseURL: h.backend.URL, Observer: h.metrics})
	require.NoError(t, err)

	h.sess = domainauth.Session{
		ID:    "sess-1",
		Token: "tok-1",
		User:  domainauth.UserProfile{Username: "alice", Role: role, EmployeeID: employeeID},
	}
	require.NoError(t, h.store.Save(context.Background(), h.sess))

	h.deps = Deps{
		API:      api,
		Sessions: h.store,
		Metrics:  h.metrics,
		Now:      testutil.FixedTimeFunc(time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)),
		OnAuthRejected: func(ctx context.Context, id string) {
			h.rejected.Add(1)
			_ = h.store.Clear(ctx, id)
		},
	}
	return h
}

func (h *harness) workspace(surface *Surface) *Workspace {
	return NewWorkspace(h.sess, surface, h.deps)
}

func activateAndWait(t *testing.T, w *Workspace, name view.Name) view.Region {
	t.Helper()
	require.True(t, w.Activate(context.Background(), name))
	w.Wait()
	return w.Board.Snapshot(name)
}

func TestWorkspace_AdminDashboardLoads(t *testing.T) {
	h := newHarness(t, domainauth.RoleAdmin, nil)
	h.backend.JSON(http.MethodGet, "/stats/overview", http.StatusOK, hr.OverviewStats{TotalEmployees: 12, PendingLeaveRequests: 3})

	w := h.workspace(AdminSurface())
	region := activateAndWait(t, w, ViewDashboard)

	slot := region.Slot(SlotMain)
	require.Equal(t, view.StatusReady, slot.Status)
	panel, ok := slot.Data.(DashboardPanel)
	require.True(t, ok)
	assert.Equal(t, 12, panel.Stats.TotalEmployees)
	assert.Equal(t, 3, panel.Stats.PendingLeaveRequests)

	calls := h.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer tok-1", calls[0].Authorization)
	assert.Equal(t, "Dashboard", w.Router.Title())
}

func TestWorkspace_FailureStaysInItsRegion(t *testing.T) {
	h := newHarness(t, domainauth.RoleAdmin, nil)
	h.backend.Text(http.MethodGet, "/users", http.StatusInternalServerError, `{"detail":"db down"}`)
	h.backend.JSON(http.MethodGet, "/stats/overview", http.StatusOK, hr.OverviewStats{TotalEmployees: 1})

	w := h.workspace(AdminSurface())
	region := activateAndWait(t, w, ViewUsers)

	slot := region.Slot(SlotMain)
	assert.Equal(t, view.StatusFailed, slot.Status)
	assert.Equal(t, "Could not load users. db down", slot.Notice)
	assert.Nil(t, slot.Data)
	assert.Zero(t, h.rejected.Load())

	// Other views are unaffected.
	region = activateAndWait(t, w, ViewDashboard)
	assert.Equal(t, view.StatusReady, region.Slot(SlotMain).Status)

	assert.InDelta(t, 1, promtestutil.ToFloat64(h.metrics.LoaderResults.WithLabelValues("users", SlotMain, metrics.ResultError, "request_failed")), 0)
}

func TestWorkspace_AuthRejectionClearsSession(t *testing.T) {
	h := newHarness(t, domainauth.RoleAdmin, nil)
	h.backend.Text(http.MethodGet, "/employees", http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)

	w := h.workspace(AdminSurface())
	region := activateAndWait(t, w, ViewEmployees)

	assert.Equal(t, SessionExpiredNotice, region.Slot(SlotMain).Notice)
	assert.EqualValues(t, 1, h.rejected.Load())

	sess, err := h.store.Load(context.Background(), h.sess.ID)
	require.NoError(t, err)
	assert.True(t, sess.Empty())

	// Later calls go out without a bearer token.
	h.backend.JSON(http.MethodGet, "/stats/overview", http.StatusOK, hr.OverviewStats{})
	activateAndWait(t, w, ViewDashboard)
	calls := h.backend.Calls()
	assert.Empty(t, calls[len(calls)-1].Authorization)
}

func TestWorkspace_EditPrefillFetchesListAndEntity(t *testing.T) {
	h := newHarness(t, domainauth.RoleAdmin, nil)
	h.backend.JSON(http.MethodGet, "/users", http.StatusOK, []hr.User{{ID: 1, Username: "a"}, {ID: 2, Username: "b"}})
	h.backend.JSON(http.MethodGet, "/users/2", http.StatusOK, hr.User{ID: 2, Username: "b", Role: "employee"})

	w := h.workspace(AdminSurface())
	w.SetFilters(ViewUsers, url.Values{"edit": {"2"}})
	region := activateAndWait(t, w, ViewUsers)

	panel := region.Slot(SlotMain).Data.(UsersPanel)
	assert.Len(t, panel.Users, 2)
	require.NotNil(t, panel.Edit)
	assert.Equal(t, "b", panel.Edit.Username)
}

func TestWorkspace_FiltersReachBackend(t *testing.T) {
	h := newHarness(t, domainauth.RoleAdmin, nil)
	h.backend.JSON(http.MethodGet, "/leaves", http.StatusOK, []hr.LeaveRequest{{ID: 4, Status: hr.LeavePending}})

	w := h.workspace(AdminSurface())
	w.SetFilters(ViewLeaves, url.Values{"employee_id": {"7"}, "leave_status": {"pending"}})
	region := activateAndWait(t, w, ViewLeaves)

	panel := region.Slot(SlotMain).Data.(LeavesPanel)
	assert.True(t, panel.Decidable)
	calls := h.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "7", calls[0].Query.Get("employee_id"))
	assert.Equal(t, "pending", calls[0].Query.Get("leave_status"))
}

func TestWorkspace_StaleResultIsDropped(t *testing.T) {
	h := newHarness(t, domainauth.RoleAdmin, nil)
	release := make(chan struct{})
	h.backend.Handle(http.MethodGet, "/leaves", func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"status":"pending"}]`))
	})
	h.backend.JSON(http.MethodGet, "/payrolls", http.StatusOK, []hr.Payroll{{ID: 9}})

	w := h.workspace(AdminSurface())
	ctx := context.Background()
	require.True(t, w.Activate(ctx, ViewLeaves))
	require.True(t, w.Activate(ctx, ViewLeaves))
	require.True(t, w.Activate(ctx, ViewPayroll))
	close(release)
	w.Wait()

	assert.Equal(t, view.StatusReady, w.Board.Snapshot(ViewPayroll).Slot(SlotMain).Status)
	leaves := w.Board.Snapshot(ViewLeaves)
	assert.False(t, leaves.Active)
	assert.Nil(t, leaves.Slot(SlotMain).Data)
	assert.InDelta(t, 2, promtestutil.ToFloat64(h.metrics.StaleResults.WithLabelValues("leaves", SlotMain)), 0)
}

func TestWorkspace_EmployeeAttendanceLoadsTableThenHeatmap(t *testing.T) {
	h := newHarness(t, domainauth.RoleEmployee, testutil.IntPtr(7))
	h.backend.JSON(http.MethodGet, "/attendances", http.StatusOK, []hr.Attendance{
		{ID: 1, EmployeeID: 7, Date: "2025-06-01"},
		{ID: 2, EmployeeID: 7, Date: "2025-06-10"},
		{ID: 3, EmployeeID: 7, Date: "2025-06-20"},
	})
	h.backend.JSON(http.MethodGet, "/stats/my-attendance-calendar", http.StatusOK, hr.AttendanceHeatmap{
		Year: 2025, Month: 6, Days: []hr.HeatmapDay{{Day: 1, Status: hr.DayWeekend}, {Day: 2, Status: hr.DayPresent}},
	})

	w := h.workspace(EmployeeSurface())
	w.SetFilters(ViewAttendance, url.Values{"from": {"2025-06-05"}, "to": {"2025-06-15"}})
	region := activateAndWait(t, w, ViewAttendance)

	require.Len(t, region.Slots, 2)
	assert.Equal(t, SlotMain, region.Slots[0].Name)
	assert.Equal(t, SlotHeatmap, region.Slots[1].Name)

	table := region.Slot(SlotMain).Data.(AttendancePanel)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2025-06-10", table.Rows[0].Date)

	heat := region.Slot(SlotHeatmap).Data.(HeatmapPanel)
	assert.Equal(t, 2025, heat.Year)
	assert.Equal(t, 6, heat.Month)
	assert.Equal(t, 6, heat.Pad) // 2025-06-01 is a Sunday
	assert.Len(t, heat.Days, 2)

	// Both loaders run concurrently, so match calls by path.
	calls := callsByPath(h.backend.Calls())
	require.Len(t, calls, 2)
	assert.Equal(t, "7", calls["/attendances"].Query.Get("employee_id"))
	assert.Equal(t, "6", calls["/stats/my-attendance-calendar"].Query.Get("month"))
	assert.Equal(t, "2025", calls["/stats/my-attendance-calendar"].Query.Get("year"))
}

func callsByPath(calls []testutil.BackendCall) map[string]testutil.BackendCall {
	out := make(map[string]testutil.BackendCall, len(calls))
	for _, c := range calls {
		out[c.Path] = c
	}
	return out
}

func TestWorkspace_ProfileWithoutEmployeeLink(t *testing.T) {
	h := newHarness(t, domainauth.RoleEmployee, nil)

	w := h.workspace(EmployeeSurface())
	region := activateAndWait(t, w, ViewProfile)

	slot := region.Slot(SlotMain)
	assert.Equal(t, view.StatusFailed, slot.Status)
	assert.Equal(t, "Your account is not linked to an employee record.", slot.Notice)
	assert.Zero(t, h.backend.CallCount())
}

func TestWorkspace_PerformanceSummary(t *testing.T) {
	h := newHarness(t, domainauth.RoleEmployee, testutil.IntPtr(7))
	h.backend.JSON(http.MethodGet, "/performance-reviews", http.StatusOK, []hr.PerformanceReview{
		{ID: 3, Period: "2025-Q2", Score: 5, Summary: "great"},
		{ID: 2, Period: "2025-Q1", Score: 3},
		{ID: 1, Period: "2024-Q4", Score: 2},
	})

	w := h.workspace(EmployeeSurface())
	region := activateAndWait(t, w, ViewPerformance)

	panel := region.Slot(SlotMain).Data.(PerformancePanel)
	require.NotNil(t, panel.Summary)
	assert.Equal(t, "2025-Q2", panel.Summary.LatestPeriod)
	assert.Equal(t, 5, panel.Summary.LatestScore)
	assert.InDelta(t, 3.33, panel.Summary.AverageScore, 0.001)
	assert.Equal(t, 3, panel.Summary.Count)
	assert.Empty(t, h.backend.Calls()[0].Query.Get("employee_id"))
}

func TestWorkspace_ReportsJoinSummaries(t *testing.T) {
	h := newHarness(t, domainauth.RoleAdmin, nil)
	h.backend.JSON(http.MethodGet, "/stats/attendance-summary", http.StatusOK, hr.MonthlySummary{
		Year: 2025, Month: 6, Items: []hr.EmployeeDays{{EmployeeID: 2, Days: 20}, {EmployeeID: 1, Days: 18}},
	})
	h.backend.JSON(http.MethodGet, "/stats/leave-summary", http.StatusOK, hr.MonthlySummary{
		Year: 2025, Month: 6, Items: []hr.EmployeeDays{{EmployeeID: 3, Days: 2}, {EmployeeID: 1, Days: 1}},
	})

	w := h.workspace(AdminSurface())
	region := activateAndWait(t, w, ViewReports)

	panel := region.Slot(SlotMain).Data.(ReportsPanel)
	assert.Equal(t, 2025, panel.Year)
	assert.Equal(t, 6, panel.Month)
	assert.Equal(t, 20, panel.MaxDays)
	assert.Equal(t, []ReportRow{
		{EmployeeID: 1, AttendanceDays: 18, LeaveDays: 1},
		{EmployeeID: 2, AttendanceDays: 20},
		{EmployeeID: 3, LeaveDays: 2},
	}, panel.Rows)
}

func TestRegistry_OpenSharesWorkspace(t *testing.T) {
	h := newHarness(t, domainauth.RoleAdmin, nil)
	reg := NewRegistry(h.deps)
	surface := AdminSurface()

	var wg sync.WaitGroup
	got := make([]*Workspace, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = reg.Open(h.sess, surface)
		}(i)
	}
	wg.Wait()

	for _, w := range got {
		assert.Same(t, got[0], w)
	}
	assert.Equal(t, 1, reg.Len())

	other := h.sess
	other.ID = "sess-2"
	assert.NotSame(t, got[0], reg.Open(other, surface))
	assert.Equal(t, 2, reg.Len())

	reg.Forget(h.sess.ID)
	_, ok := reg.Lookup(h.sess.ID, surface.Name)
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_Sweep(t *testing.T) {
	h := newHarness(t, domainauth.RoleAdmin, nil)
	now := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	h.deps.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	reg := NewRegistry(h.deps)
	reg.Open(h.sess, AdminSurface())

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	assert.Zero(t, reg.Sweep(3*time.Hour))
	assert.Equal(t, 1, reg.Sweep(time.Hour))
	assert.Zero(t, reg.Len())
}

func TestRegistry_WaitCoversForgottenWorkspaces(t *testing.T) {
	h := newHarness(t, domainauth.RoleAdmin, nil)
	release := make(chan struct{})
	h.backend.Handle(http.MethodGet, "/stats/overview", func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	reg := NewRegistry(h.deps)
	w := reg.Open(h.sess, AdminSurface())
	require.True(t, w.Activate(context.Background(), ViewDashboard))

	reg.Forget(h.sess.ID)
	require.Zero(t, reg.Len())

	done := make(chan struct{})
	go func() {
		reg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while a loader was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after the loader finished")
	}
}

func TestMondayPad(t *testing.T) {
	assert.Equal(t, 0, mondayPad(2025, 9))  // Monday
	assert.Equal(t, 2, mondayPad(2025, 1))  // Wednesday
	assert.Equal(t, 6, mondayPad(2025, 6))  // Sunday
	assert.Equal(t, 5, mondayPad(2025, 11)) // Saturday
}
