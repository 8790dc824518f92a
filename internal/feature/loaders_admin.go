package feature

import (
	"context"
	"net/url"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/target/hr-dashboard/internal/domain/hr"
	"github.com/target/hr-dashboard/internal/hrapi"
)

func loadDashboard(ctx context.Context, w *Workspace, _ url.Values) (any, error) {
	stats, err := w.API().OverviewStats(ctx)
	if err != nil {
		return nil, err
	}
	return DashboardPanel{Stats: stats}, nil
}

func loadUsers(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	var panel UsersPanel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := w.API().ListUsers(gctx)
		panel.Users = users
		return err
	})
	if id := intParam(q, "edit"); id > 0 {
		g.Go(func() error {
			u, err := w.API().GetUser(gctx, id)
			if err != nil {
				return err
			}
			panel.Edit = &u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return panel, nil
}

func loadEmployees(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	var panel EmployeesPanel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emps, err := w.API().ListEmployees(gctx)
		panel.Employees = emps
		return err
	})
	if id := intParam(q, "edit"); id > 0 {
		g.Go(func() error {
			e, err := w.API().GetEmployee(gctx, id)
			if err != nil {
				return err
			}
			panel.Edit = &e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return panel, nil
}

func loadAdminAttendance(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	rows, err := w.API().ListAttendances(ctx, hrapi.AttendanceFilter{
		EmployeeID: intParam(q, "employee_id"),
		WorkDate:   dateParam(q, "work_date"),
	})
	if err != nil {
		return nil, err
	}
	return AttendancePanel{Rows: rows, Filter: q}, nil
}

func loadAdminLeaves(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	rows, err := w.API().ListLeaves(ctx, hrapi.LeaveFilter{
		EmployeeID: intParam(q, "employee_id"),
		Status:     leaveStatusParam(q),
	})
	if err != nil {
		return nil, err
	}
	return LeavesPanel{Rows: rows, Filter: q, Decidable: true}, nil
}

func leaveStatusParam(q url.Values) hr.LeaveStatus {
	switch s := hr.LeaveStatus(q.Get("leave_status")); s {
	case hr.LeavePending, hr.LeaveApproved, hr.LeaveRejected:
		return s
	default:
		return ""
	}
}

func loadAdminPayroll(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	rows, err := w.API().ListPayrolls(ctx, hrapi.PayrollFilter{
		EmployeeID: intParam(q, "employee_id"),
		Year:       intParam(q, "year"),
		Month:      intParam(q, "month"),
	})
	if err != nil {
		return nil, err
	}
	return PayrollPanel{Rows: rows, Filter: q}, nil
}

func loadAdminPerformance(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	panel := PerformancePanel{Filter: q}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reviews, err := w.API().ListPerformanceReviews(gctx, intParam(q, "employee_id"))
		panel.Reviews = reviews
		return err
	})
	if id := intParam(q, "edit"); id > 0 {
		g.Go(func() error {
			r, err := w.API().GetPerformanceReview(gctx, id)
			if err != nil {
				return err
			}
			panel.Edit = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return panel, nil
}

func loadReports(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	year, month := monthParam(q, w.Now())
	var attendance, leave hr.MonthlySummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attendance, err = w.API().AttendanceSummary(gctx, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		leave, err = w.API().LeaveSummary(gctx, year, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ReportsPanel{Year: year, Month: month, Rows: joinSummaries(attendance, leave), MaxDays: maxDays(attendance, leave)}, nil
}

// joinSummaries merges both summaries by employee id, ordered by id.
func joinSummaries(attendance, leave hr.MonthlySummary) []ReportRow {
	byID := make(map[int]*ReportRow)
	row := func(id int) *ReportRow {
		r, ok := byID[id]
		if !ok {
			r = &ReportRow{EmployeeID: id}
			byID[id] = r
		}
		return r
	}
	for _, it := range attendance.Items {
		row(it.EmployeeID).AttendanceDays = it.Days
	}
	for _, it := range leave.Items {
		row(it.EmployeeID).LeaveDays = it.Days
	}

	out := make([]ReportRow, 0, len(byID))
	for _, r := range byID {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}

func maxDays(summaries ...hr.MonthlySummary) int {
	m := 0
	for _, s := range summaries {
		for _, it := range s.Items {
			if it.Days > m {
				m = it.Days
			}
		}
	}
	return m
}
