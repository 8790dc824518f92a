package feature

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	"github.com/target/hr-dashboard/internal/domain/hr"
	apperrors "github.com/target/hr-dashboard/internal/errors"
)

func formString(form url.Values, key string) string {
	return strings.TrimSpace(form.Get(key))
}

// optionalString returns nil for a blank field so the backend stores null.
func optionalString(form url.Values, key string) *string {
	v := formString(form, key)
	if v == "" {
		return nil
	}
	return &v
}

func requiredID(form url.Values, key string) (int, error) {
	n, err := strconv.Atoi(formString(form, key))
	if err != nil || n <= 0 {
		return 0, apperrors.Validation(key, "A valid "+strings.ReplaceAll(key, "_", " ")+" is required.")
	}
	return n, nil
}

// optionalID returns 0 when the field is blank.
func optionalID(form url.Values, key string) (int, error) {
	if formString(form, key) == "" {
		return 0, nil
	}
	return requiredID(form, key)
}

func optionalDate(form url.Values, key string) (*string, error) {
	v := optionalString(form, key)
	if v == nil {
		return nil, nil
	}
	if _, err := time.Parse(time.DateOnly, *v); err != nil {
		return nil, apperrors.Validation(key, "Dates must use the YYYY-MM-DD format.")
	}
	return v, nil
}

// ParseUserForm validates the account form. A password is required only when
// creating.
func ParseUserForm(form url.Values) (int, hr.UserInput, error) {
	id, err := optionalID(form, "id")
	if err != nil {
		return 0, hr.UserInput{}, err
	}
	in := hr.UserInput{
		Username: formString(form, "username"),
		Email:    optionalString(form, "email"),
		Password: optionalString(form, "password"),
	}
	if in.Username == "" {
		return 0, in, apperrors.Validation("username", "Username is required.")
	}
	role, ok := domainauth.ParseRole(formString(form, "role"))
	if !ok {
		return 0, in, apperrors.Validation("role", "Role must be admin or employee.")
	}
	in.Role = string(role)
	if id == 0 && in.Password == nil {
		return 0, in, apperrors.Validation("password", "A password is required for new accounts.")
	}
	emp, err := optionalID(form, "employee_id")
	if err != nil {
		return 0, in, err
	}
	if emp > 0 {
		in.EmployeeID = &emp
	}
	return id, in, nil
}

// ParseEmployeeForm validates the employee form.
func ParseEmployeeForm(form url.Values) (int, hr.EmployeeInput, error) {
	id, err := optionalID(form, "id")
	if err != nil {
		return 0, hr.EmployeeInput{}, err
	}
	in := hr.EmployeeInput{
		FullName:   formString(form, "full_name"),
		Email:      optionalString(form, "email"),
		Phone:      optionalString(form, "phone"),
		Gender:     optionalString(form, "gender"),
		Position:   optionalString(form, "position"),
		Department: optionalString(form, "department"),
	}
	if in.FullName == "" {
		return 0, in, apperrors.Validation("full_name", "Full name is required.")
	}
	if in.BirthDate, err = optionalDate(form, "birth_date"); err != nil {
		return 0, in, err
	}
	if in.StartDate, err = optionalDate(form, "start_date"); err != nil {
		return 0, in, err
	}
	return id, in, nil
}

// ParseLeaveForm validates a leave application for employeeID. Both dates are
// required and the end may not precede the start.
func ParseLeaveForm(form url.Values, employeeID int) (hr.LeaveInput, error) {
	in := hr.LeaveInput{
		EmployeeID: employeeID,
		StartDate:  formString(form, "start_date"),
		EndDate:    formString(form, "end_date"),
		Reason:     optionalString(form, "reason"),
	}
	if in.StartDate == "" || in.EndDate == "" {
		return in, apperrors.Validation("start_date", "Please choose both the start and end dates.")
	}
	start, err := time.Parse(time.DateOnly, in.StartDate)
	if err != nil {
		return in, apperrors.Validation("start_date", "Dates must use the YYYY-MM-DD format.")
	}
	end, err := time.Parse(time.DateOnly, in.EndDate)
	if err != nil {
		return in, apperrors.Validation("end_date", "Dates must use the YYYY-MM-DD format.")
	}
	if end.Before(start) {
		return in, apperrors.Validation("end_date", "The end date must be on or after the start date.")
	}
	return in, nil
}

// ParsePayrollForm validates a payroll calculation request.
func ParsePayrollForm(form url.Values) (hr.PayrollInput, error) {
	var in hr.PayrollInput
	var err error
	if in.EmployeeID, err = requiredID(form, "employee_id"); err != nil {
		return in, err
	}
	if in.Year, err = requiredID(form, "year"); err != nil {
		return in, err
	}
	in.Month, err = strconv.Atoi(formString(form, "month"))
	if err != nil || in.Month < 1 || in.Month > 12 {
		return in, apperrors.Validation("month", "Month must be between 1 and 12.")
	}
	in.BaseDailySalary, err = strconv.ParseFloat(formString(form, "base_daily_salary"), 64)
	if err != nil || in.BaseDailySalary <= 0 {
		return in, apperrors.Validation("base_daily_salary", "Daily salary must be a positive number.")
	}
	if v := formString(form, "deductions"); v != "" {
		in.Deductions, err = strconv.ParseFloat(v, 64)
		if err != nil || in.Deductions < 0 {
			return in, apperrors.Validation("deductions", "Deductions must be zero or more.")
		}
	}
	return in, nil
}

// ParseReviewForm validates the performance review form. Scores run 1 to 5.
func ParseReviewForm(form url.Values) (int, hr.PerformanceReviewInput, error) {
	id, err := optionalID(form, "id")
	if err != nil {
		return 0, hr.PerformanceReviewInput{}, err
	}
	in := hr.PerformanceReviewInput{
		Period:       formString(form, "period"),
		Summary:      optionalString(form, "summary"),
		Strengths:    optionalString(form, "strengths"),
		Improvements: optionalString(form, "improvements"),
	}
	if in.EmployeeID, err = requiredID(form, "employee_id"); err != nil {
		return 0, in, err
	}
	if in.Period == "" {
		return 0, in, apperrors.Validation("period", "Period is required, for example 2025-Q1.")
	}
	in.Score, err = strconv.Atoi(formString(form, "score"))
	if err != nil || in.Score < 1 || in.Score > 5 {
		return 0, in, apperrors.Validation("score", "Score must be between 1 and 5.")
	}
	return id, in, nil
}
