package hrapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/target/hr-dashboard/internal/domain/hr"
)

// Report names a downloadable backend report.
type Report string

const (
	ReportPayrollExcel    Report = "payroll-excel"
	ReportPayrollPDF      Report = "payroll-pdf"
	ReportAttendanceExcel Report = "attendance-excel"
	ReportPayslipPDF      Report = "payroll-slip-pdf"
)

// Path returns the backend path for the report.
func (r Report) Path() string { return "/reports/" + string(r) }

// AttendanceFilter narrows GET /attendances.
type AttendanceFilter struct {
	EmployeeID int
	WorkDate   string
}

// LeaveFilter narrows GET /leaves.
type LeaveFilter struct {
	EmployeeID int
	Status     hr.LeaveStatus
}

// PayrollFilter narrows GET /payrolls.
type PayrollFilter struct {
	EmployeeID int
	Year       int
	Month      int
}

// ListUsers returns all dashboard accounts.
func (c *Client) ListUsers(ctx context.Context) ([]hr.User, error) {
	var out []hr.User
	err := c.Get(ctx, "/users", nil, &out)
	return out, err
}

// GetUser returns one account.
func (c *Client) GetUser(ctx context.Context, id int) (hr.User, error) {
	var out hr.User
	err := c.Get(ctx, "/users/"+strconv.Itoa(id), nil, &out)
	return out, err
}

// SaveUser creates the user when id is 0 and updates it otherwise.
func (c *Client) SaveUser(ctx context.Context, id int, in hr.UserInput) (hr.User, error) {
	var out hr.User
	if id == 0 {
		err := c.Post(ctx, "/users", in, &out)
		return out, err
	}
	err := c.Put(ctx, "/users/"+strconv.Itoa(id), in, &out)
	return out, err
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.Delete(ctx, "/users/"+strconv.Itoa(id), nil)
}

// ListEmployees returns every employee.
func (c *Client) ListEmployees(ctx context.Context) ([]hr.Employee, error) {
	var out []hr.Employee
	err := c.Get(ctx, "/employees", nil, &out)
	return out, err
}

// GetEmployee returns one employee.
func (c *Client) GetEmployee(ctx context.Context, id int) (hr.Employee, error) {
	var out hr.Employee
	err := c.Get(ctx, "/employees/"+strconv.Itoa(id), nil, &out)
	return out, err
}

// SaveEmployee creates the employee when id is 0 and updates it otherwise.
func (c *Client) SaveEmployee(ctx context.Context, id int, in hr.EmployeeInput) (hr.Employee, error) {
	var out hr.Employee
	if id == 0 {
		err := c.Post(ctx, "/employees", in, &out)
		return out, err
	}
	err := c.Put(ctx, "/employees/"+strconv.Itoa(id), in, &out)
	return out, err
}

// DeleteEmployee removes an employee.
func (c *Client) DeleteEmployee(ctx context.Context, id int) error {
	return c.Delete(ctx, "/employees/"+strconv.Itoa(id), nil)
}

// ListAttendances returns attendance rows matching f.
func (c *Client) ListAttendances(ctx context.Context, f AttendanceFilter) ([]hr.Attendance, error) {
	q := url.Values{}
	setInt(q, "employee_id", f.EmployeeID)
	setString(q, "work_date", f.WorkDate)
	var out []hr.Attendance
	err := c.Get(ctx, "/attendances", q, &out)
	return out, err
}

// ListLeaves returns leave requests matching f.
func (c *Client) ListLeaves(ctx context.Context, f LeaveFilter) ([]hr.LeaveRequest, error) {
	q := url.Values{}
	setInt(q, "employee_id", f.EmployeeID)
	setString(q, "leave_status", string(f.Status))
	var out []hr.LeaveRequest
	err := c.Get(ctx, "/leaves", q, &out)
	return out, err
}

// CreateLeave files a new leave request.
func (c *Client) CreateLeave(ctx context.Context, in hr.LeaveInput) (hr.LeaveRequest, error) {
	var out hr.LeaveRequest
	err := c.Post(ctx, "/leaves", in, &out)
	return out, err
}

// DecideLeave approves or rejects a pending leave request.
func (c *Client) DecideLeave(ctx context.Context, id int, approve bool) (hr.LeaveRequest, error) {
	action := "reject"
	if approve {
		action = "approve"
	}
	var out hr.LeaveRequest
	err := c.Put(ctx, "/leaves/"+strconv.Itoa(id)+"/"+action, nil, &out)
	return out, err
}

// ListPayrolls returns payroll lines matching f.
func (c *Client) ListPayrolls(ctx context.Context, f PayrollFilter) ([]hr.Payroll, error) {
	q := url.Values{}
	setInt(q, "employee_id", f.EmployeeID)
	setInt(q, "year", f.Year)
	setInt(q, "month", f.Month)
	var out []hr.Payroll
	err := c.Get(ctx, "/payrolls", q, &out)
	return out, err
}

// CalculatePayroll asks the backend to compute one employee's month.
func (c *Client) CalculatePayroll(ctx context.Context, in hr.PayrollInput) (hr.Payroll, error) {
	var out hr.Payroll
	err := c.Post(ctx, "/payrolls/calculate", in, &out)
	return out, err
}

// ListPerformanceReviews returns reviews, optionally for one employee. The
// backend scopes employees to their own reviews regardless of the filter.
func (c *Client) ListPerformanceReviews(ctx context.Context, employeeID int) ([]hr.PerformanceReview, error) {
	q := url.Values{}
	setInt(q, "employee_id", employeeID)
	var out []hr.PerformanceReview
	err := c.Get(ctx, "/performance-reviews", q, &out)
	return out, err
}

// GetPerformanceReview returns one review.
func (c *Client) GetPerformanceReview(ctx context.Context, id int) (hr.PerformanceReview, error) {
	var out hr.PerformanceReview
	err := c.Get(ctx, "/performance-reviews/"+strconv.Itoa(id), nil, &out)
	return out, err
}

// SavePerformanceReview creates the review when id is 0 and updates it otherwise.
func (c *Client) SavePerformanceReview(ctx context.Context, id int, in hr.PerformanceReviewInput) (hr.PerformanceReview, error) {
	var out hr.PerformanceReview
	if id == 0 {
		err := c.Post(ctx, "/performance-reviews", in, &out)
		return out, err
	}
	err := c.Put(ctx, "/performance-reviews/"+strconv.Itoa(id), in, &out)
	return out, err
}

// DeletePerformanceReview removes a review.
func (c *Client) DeletePerformanceReview(ctx context.Context, id int) error {
	return c.Delete(ctx, "/performance-reviews/"+strconv.Itoa(id), nil)
}

// MyPolicies returns the active compliance policies with the caller's
// acknowledgement status.
func (c *Client) MyPolicies(ctx context.Context) ([]hr.CompliancePolicy, error) {
	var out []hr.CompliancePolicy
	err := c.Get(ctx, "/compliance/my-policies", nil, &out)
	return out, err
}

// AcknowledgePolicy records the caller's acknowledgement. The backend answers 204.
func (c *Client) AcknowledgePolicy(ctx context.Context, id int) error {
	return c.Post(ctx, "/compliance/policies/"+strconv.Itoa(id)+"/acknowledge", struct{}{}, nil)
}

// OverviewStats returns the admin dashboard counters.
func (c *Client) OverviewStats(ctx context.Context) (hr.OverviewStats, error) {
	var out hr.OverviewStats
	err := c.Get(ctx, "/stats/overview", nil, &out)
	return out, err
}

// AttendanceSummary returns attended days per employee for a month.
func (c *Client) AttendanceSummary(ctx context.Context, year, month int) (hr.MonthlySummary, error) {
	var out hr.MonthlySummary
	err := c.Get(ctx, "/stats/attendance-summary", monthQuery(year, month), &out)
	return out, err
}

// LeaveSummary returns approved leave days per employee for a month.
func (c *Client) LeaveSummary(ctx context.Context, year, month int) (hr.MonthlySummary, error) {
	var out hr.MonthlySummary
	err := c.Get(ctx, "/stats/leave-summary", monthQuery(year, month), &out)
	return out, err
}

// MyAttendanceCalendar returns the signed-in employee's heatmap for a month.
func (c *Client) MyAttendanceCalendar(ctx context.Context, year, month int) (hr.AttendanceHeatmap, error) {
	var out hr.AttendanceHeatmap
	err := c.Get(ctx, "/stats/my-attendance-calendar", monthQuery(year, month), &out)
	return out, err
}

// DownloadReport fetches a generated report.
func (c *Client) DownloadReport(ctx context.Context, r Report, query url.Values) (*Blob, error) {
	return c.GetBlob(ctx, r.Path(), query)
}

func monthQuery(year, month int) url.Values {
	q := url.Values{}
	setInt(q, "year", year)
	setInt(q, "month", month)
	return q
}

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}
