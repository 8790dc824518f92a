package feature

import (
	"net/url"

	"github.com/target/hr-dashboard/internal/domain/hr"
)

// Slot names shared by loaders and templates.
const (
	SlotMain    = "main"
	SlotHeatmap = "heatmap"
)

// DashboardPanel backs the admin overview cards.
type DashboardPanel struct {
	Stats hr.OverviewStats
}

// UsersPanel backs the account list and its create/edit form.
type UsersPanel struct {
	Users []hr.User
	Edit  *hr.User
}

// EmployeesPanel backs the employee list and its create/edit form.
type EmployeesPanel struct {
	Employees []hr.Employee
	Edit      *hr.Employee
}

// AttendancePanel backs attendance tables on both surfaces.
type AttendancePanel struct {
	Rows   []hr.Attendance
	Filter url.Values
}

// LeavesPanel backs leave lists. Decidable is true on the admin surface.
type LeavesPanel struct {
	Rows      []hr.LeaveRequest
	Filter    url.Values
	Decidable bool
}

// PayrollPanel backs payroll lists. Payslips is true when rows link to a PDF slip.
type PayrollPanel struct {
	Rows     []hr.Payroll
	Filter   url.Values
	Payslips bool
}

// PerformancePanel backs review lists. Summary is set on the employee surface.
type PerformancePanel struct {
	Reviews []hr.PerformanceReview
	Edit    *hr.PerformanceReview
	Filter  url.Values
	Summary *PerformanceSummary
}

// PerformanceSummary condenses an employee's reviews.
type PerformanceSummary struct {
	LatestPeriod  string
	LatestScore   int
	LatestSummary string
	AverageScore  float64
	Count         int
}

// ReportRow joins attendance and approved leave days for one employee.
type ReportRow struct {
	EmployeeID     int
	AttendanceDays int
	LeaveDays      int
}

// ReportsPanel backs the monthly summary chart and report downloads.
type ReportsPanel struct {
	Year    int
	Month   int
	Rows    []ReportRow
	MaxDays int
}

// ProfilePanel backs the employee's own profile card. Employee is nil when
// the account is not linked to an employee record.
type ProfilePanel struct {
	Username string
	Employee *hr.Employee
}

// HeatmapPanel backs the monthly attendance calendar. Pad is the number of
// empty cells before day one in a Monday-first week.
type HeatmapPanel struct {
	Year  int
	Month int
	Pad   int
	Days  []hr.HeatmapDay
}

// CompliancePanel backs the employee's policy list. Selected is the policy
// opened for reading, if any.
type CompliancePanel struct {
	Policies []hr.CompliancePolicy
	Selected *hr.CompliancePolicy
}
