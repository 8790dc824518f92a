// Package feature binds the admin and employee surfaces to the backend: the
// views each surface offers, the loaders that fill their regions and the form
// actions that mutate backend state.
package feature

import (
	"context"
	"net/url"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	"github.com/target/hr-dashboard/internal/hrapi"
	"github.com/target/hr-dashboard/internal/view"
)

// Admin view names.
const (
	ViewDashboard   view.Name = "dashboard"
	ViewUsers       view.Name = "users"
	ViewEmployees   view.Name = "employees"
	ViewAttendance  view.Name = "attendance"
	ViewLeaves      view.Name = "leaves"
	ViewPayroll     view.Name = "payroll"
	ViewPerformance view.Name = "performance"
	ViewReports     view.Name = "reports"
)

// Employee-only view names.
const (
	ViewProfile    view.Name = "profile"
	ViewCompliance view.Name = "compliance"
)

// FetchFunc produces one slot's payload. filters holds the view's current
// query filters.
type FetchFunc func(ctx context.Context, w *Workspace, filters url.Values) (any, error)

// Loader fills one slot of a view.
type Loader struct {
	Slot   string
	Notice string
	Fetch  FetchFunc
}

// ViewSpec declares one tab of a surface.
type ViewSpec struct {
	Name    view.Name
	Title   string
	Loaders []Loader
}

// Hook is a loader appended after the router is built.
type Hook struct {
	View   view.Name
	Loader Loader
}

// Surface is the set of views available to one role.
type Surface struct {
	Name        string
	Role        domainauth.Role
	DefaultView view.Name
	Views       []ViewSpec
	Hooks       []Hook
	Actions     []Action
	Reports     []hrapi.Report
}

// View returns the spec for name.
func (s *Surface) View(name view.Name) (ViewSpec, bool) {
	for _, v := range s.Views {
		if v.Name == name {
			return v, true
		}
	}
	return ViewSpec{}, false
}

// AdminSurface returns the HR administrator dashboard.
func AdminSurface() *Surface {
	return &Surface{
		Name:        "admin",
		Role:        domainauth.RoleAdmin,
		DefaultView: ViewDashboard,
		Views: []ViewSpec{
			{Name: ViewDashboard, Title: "Dashboard", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load the overview.", Fetch: loadDashboard},
			}},
			{Name: ViewUsers, Title: "Users", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load users.", Fetch: loadUsers},
			}},
			{Name: ViewEmployees, Title: "Employees", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load employees.", Fetch: loadEmployees},
			}},
			{Name: ViewAttendance, Title: "Attendance", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load attendance.", Fetch: loadAdminAttendance},
			}},
			{Name: ViewLeaves, Title: "Leave requests", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load leave requests.", Fetch: loadAdminLeaves},
			}},
			{Name: ViewPayroll, Title: "Payroll", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load payroll.", Fetch: loadAdminPayroll},
			}},
			{Name: ViewPerformance, Title: "Performance reviews", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load performance reviews.", Fetch: loadAdminPerformance},
			}},
			{Name: ViewReports, Title: "Reports", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load the monthly summary.", Fetch: loadReports},
			}},
		},
		Actions: adminActions(),
		Reports: []hrapi.Report{hrapi.ReportPayrollExcel, hrapi.ReportPayrollPDF, hrapi.ReportAttendanceExcel},
	}
}

// EmployeeSurface returns the self-service portal. The attendance heatmap is
// appended to the attendance view after its table loader.
func EmployeeSurface() *Surface {
	return &Surface{
		Name:        "employee",
		Role:        domainauth.RoleEmployee,
		DefaultView: ViewProfile,
		Views: []ViewSpec{
			{Name: ViewProfile, Title: "My profile", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load your profile.", Fetch: loadProfile},
			}},
			{Name: ViewAttendance, Title: "My attendance", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load your attendance.", Fetch: loadMyAttendance},
			}},
			{Name: ViewLeaves, Title: "My leave", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load your leave requests.", Fetch: loadMyLeaves},
			}},
			{Name: ViewPayroll, Title: "My payroll", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load your payroll.", Fetch: loadMyPayroll},
			}},
			{Name: ViewPerformance, Title: "My performance", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load your reviews.", Fetch: loadMyPerformance},
			}},
			{Name: ViewCompliance, Title: "Compliance", Loaders: []Loader{
				{Slot: SlotMain, Notice: "Could not load your policies.", Fetch: loadMyPolicies},
			}},
		},
		Hooks: []Hook{
			{View: ViewAttendance, Loader: Loader{
				Slot: SlotHeatmap, Notice: "Could not load the attendance calendar.", Fetch: loadHeatmap,
			}},
		},
		Actions: employeeActions(),
		Reports: []hrapi.Report{hrapi.ReportPayslipPDF},
	}
}

// Surfaces lists every surface.
func Surfaces() []*Surface {
	return []*Surface{AdminSurface(), EmployeeSurface()}
}
