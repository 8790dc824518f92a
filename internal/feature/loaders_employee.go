package feature

import (
	"context"
	"net/url"
	"time"

	"github.com/target/hr-dashboard/internal/domain/hr"
	"github.com/target/hr-dashboard/internal/hrapi"
)

// ownEmployeeID returns the linked employee id or 0; list endpoints scope an
// unlinked caller by token.
func ownEmployeeID(w *Workspace) int {
	id, err := w.EmployeeID()
	if err != nil {
		return 0
	}
	return id
}

func loadProfile(ctx context.Context, w *Workspace, _ url.Values) (any, error) {
	id, err := w.EmployeeID()
	if err != nil {
		return nil, err
	}
	emp, err := w.API().GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	return ProfilePanel{Username: w.User.Username, Employee: &emp}, nil
}

// loadMyAttendance lists the caller's attendance, narrowed to the optional
// from/to dates (inclusive).
func loadMyAttendance(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	rows, err := w.API().ListAttendances(ctx, hrapi.AttendanceFilter{EmployeeID: ownEmployeeID(w)})
	if err != nil {
		return nil, err
	}
	return AttendancePanel{Rows: filterByDate(rows, dateParam(q, "from"), dateParam(q, "to")), Filter: q}, nil
}

// filterByDate keeps rows within [from, to]. YYYY-MM-DD strings order
// lexically, and an empty bound is open.
func filterByDate(rows []hr.Attendance, from, to string) []hr.Attendance {
	if from == "" && to == "" {
		return rows
	}
	out := make([]hr.Attendance, 0, len(rows))
	for _, a := range rows {
		if from != "" && a.Date < from {
			continue
		}
		if to != "" && a.Date > to {
			continue
		}
		out = append(out, a)
	}
	return out
}

func loadHeatmap(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	year, month := monthParam(q, w.Now())
	cal, err := w.API().MyAttendanceCalendar(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return HeatmapPanel{Year: year, Month: month, Pad: mondayPad(year, month), Days: cal.Days}, nil
}

// mondayPad is the number of blank cells before the first of the month in a
// week that starts on Monday.
func mondayPad(year, month int) int {
	wd := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Weekday()
	return (int(wd) + 6) % 7
}

func loadMyLeaves(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	rows, err := w.API().ListLeaves(ctx, hrapi.LeaveFilter{EmployeeID: ownEmployeeID(w)})
	if err != nil {
		return nil, err
	}
	return LeavesPanel{Rows: rows, Filter: q}, nil
}

func loadMyPayroll(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	rows, err := w.API().ListPayrolls(ctx, hrapi.PayrollFilter{
		EmployeeID: ownEmployeeID(w),
		Year:       intParam(q, "year"),
		Month:      intParam(q, "month"),
	})
	if err != nil {
		return nil, err
	}
	return PayrollPanel{Rows: rows, Filter: q, Payslips: w.User.HasEmployee()}, nil
}

func loadMyPerformance(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	if _, err := w.EmployeeID(); err != nil {
		return nil, err
	}
	reviews, err := w.API().ListPerformanceReviews(ctx, 0)
	if err != nil {
		return nil, err
	}
	summary, err := SummarizeReviews(reviews)
	if err != nil {
		return nil, err
	}
	return PerformancePanel{Reviews: reviews, Filter: q, Summary: summary}, nil
}

func loadMyPolicies(ctx context.Context, w *Workspace, q url.Values) (any, error) {
	policies, err := w.API().MyPolicies(ctx)
	if err != nil {
		return nil, err
	}
	panel := CompliancePanel{Policies: policies}
	if id := intParam(q, "policy"); id > 0 {
		for i := range policies {
			if policies[i].ID == id {
				panel.Selected = &policies[i]
				break
			}
		}
	}
	return panel, nil
}
