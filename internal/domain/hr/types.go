// Package hr holds the records exchanged with the HR REST backend.
package hr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp decodes the backend's ISO-8601 datetimes, which may or may not
// carry a zone offset.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON accepts null, zoned and unzoned timestamps.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

// MarshalJSON writes RFC 3339 or null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// LeaveStatus is the lifecycle state of a leave request.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// Employee is an employee record. Dates are YYYY-MM-DD strings.
type Employee struct {
	ID         int    `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Gender     string `json:"gender,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
	Position   string `json:"position,omitempty"`
	Department string `json:"department,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
}

// EmployeeInput is the create/update payload for an employee.
type EmployeeInput struct {
	FullName   string  `json:"full_name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Gender     *string `json:"gender"`
	BirthDate  *string `json:"birth_date"`
	Position   *string `json:"position"`
	Department *string `json:"department"`
	StartDate  *string `json:"start_date"`
}

// Attendance is one day's check-in record.
type Attendance struct {
	ID         int    `json:"id"`
	EmployeeID int    `json:"employee_id"`
	Date       string `json:"date"`
	CheckIn    string `json:"check_in,omitempty"`
	CheckOut   string `json:"check_out,omitempty"`
}

// LeaveRequest is a leave application.
type LeaveRequest struct {
	ID         int         `json:"id"`
	EmployeeID int         `json:"employee_id"`
	StartDate  string      `json:"start_date"`
	EndDate    string      `json:"end_date"`
	Reason     string      `json:"reason,omitempty"`
	Status     LeaveStatus `json:"status"`
	CreatedAt  Timestamp   `json:"created_at"`
	UpdatedAt  Timestamp   `json:"updated_at"`
}

// LeaveInput is the create payload for a leave request.
type LeaveInput struct {
	EmployeeID int     `json:"employee_id"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Reason     *string `json:"reason"`
}

// Payroll is a calculated monthly payroll line.
type Payroll struct {
	ID              int       `json:"id"`
	EmployeeID      int       `json:"employee_id"`
	Year            int       `json:"year"`
	Month           int       `json:"month"`
	BaseDailySalary float64   `json:"base_daily_salary"`
	AttendanceDays  int       `json:"attendance_days"`
	PaidLeaveDays   int       `json:"paid_leave_days"`
	GrossSalary     float64   `json:"gross_salary"`
	Deductions      float64   `json:"deductions"`
	NetSalary       float64   `json:"net_salary"`
	CreatedAt       Timestamp `json:"created_at"`
}

// PayrollInput requests a payroll calculation.
type PayrollInput struct {
	EmployeeID      int     `json:"employee_id"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	BaseDailySalary float64 `json:"base_daily_salary"`
	Deductions      float64 `json:"deductions"`
}

// PerformanceReview is a scored review for one period.
type PerformanceReview struct {
	ID           int       `json:"id"`
	EmployeeID   int       `json:"employee_id"`
	ReviewerID   int       `json:"reviewer_id"`
	Period       string    `json:"period"`
	Score        int       `json:"score"`
	Summary      string    `json:"summary,omitempty"`
	Strengths    string    `json:"strengths,omitempty"`
	Improvements string    `json:"improvements,omitempty"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
}

// PerformanceReviewInput is the create/update payload for a review.
type PerformanceReviewInput struct {
	EmployeeID   int     `json:"employee_id"`
	Period       string  `json:"period"`
	Score        int     `json:"score"`
	Summary      *string `json:"summary"`
	Strengths    *string `json:"strengths"`
	Improvements *string `json:"improvements"`
}

// CompliancePolicy is a policy together with the caller's acknowledgement state.
type CompliancePolicy struct {
	ID             int        `json:"id"`
	Title          string     `json:"title"`
	Code           string     `json:"code,omitempty"`
	Description    string     `json:"description,omitempty"`
	EffectiveDate  string     `json:"effective_date"`
	IsActive       bool       `json:"is_active"`
	IsAcknowledged bool       `json:"is_acknowledged"`
	AcknowledgedAt *Timestamp `json:"acknowledged_at,omitempty"`
	CreatedAt      Timestamp  `json:"created_at"`
	UpdatedAt      Timestamp  `json:"updated_at"`
}

// User is a dashboard login account.
type User struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role"`
	EmployeeID *int      `json:"employee_id,omitempty"`
	CreatedAt  Timestamp `json:"created_at"`
}

// UserInput is the create/update payload for a user. Password may be omitted
// on update to keep the current one.
type UserInput struct {
	Username   string  `json:"username"`
	Email      *string `json:"email"`
	Role       string  `json:"role"`
	EmployeeID *int    `json:"employee_id"`
	Password   *string `json:"password,omitempty"`
}

// OverviewStats backs the admin dashboard cards.
type OverviewStats struct {
	TotalEmployees           int     `json:"total_employees"`
	TodaysAttendanceCount    int     `json:"todays_attendance_count"`
	PendingLeaveRequests     int     `json:"pending_leave_requests"`
	CurrentMonthTotalPayroll float64 `json:"current_month_total_payroll"`
}

// EmployeeDays is a per-employee day count.
type EmployeeDays struct {
	EmployeeID int `json:"employee_id"`
	Days       int `json:"days"`
}

// MonthlySummary is the shape shared by the attendance and leave summaries.
type MonthlySummary struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Items []EmployeeDays `json:"items"`
}

// DayStatus classifies one calendar day in the attendance heatmap.
type DayStatus string

const (
	DayPresent         DayStatus = "present"
	DayPaidLeave       DayStatus = "paid_leave"
	DayWeekend         DayStatus = "weekend"
	DayFuture          DayStatus = "future"
	DayAbsentUnexcused DayStatus = "absent_unexcused"
)

// HeatmapDay is one cell of the attendance heatmap.
type HeatmapDay struct {
	Day    int       `json:"day"`
	Status DayStatus `json:"status"`
}

// AttendanceHeatmap is the calendar returned for the signed-in employee.
type AttendanceHeatmap struct {
	Year  int          `json:"year"`
	Month int          `json:"month"`
	Days  []HeatmapDay `json:"days"`
}
