package feature

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	apperrors "github.com/target/hr-dashboard/internal/errors"
	"github.com/target/hr-dashboard/internal/hrapi"
	obserrors "github.com/target/hr-dashboard/internal/observability/errors"
	"github.com/target/hr-dashboard/internal/view"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// ErrUnknownAction is returned for an action the surface does not offer.
var ErrUnknownAction = errors.New("feature: unknown action")

// ErrUnknownReport is returned for a download the surface does not offer.
var ErrUnknownReport = errors.New("feature: unknown report")

// ActionFunc performs one form submission and returns the success message.
type ActionFunc func(ctx context.Context, w *Workspace, form url.Values) (string, error)

// Action is a form submission on one view.
type Action struct {
	View    view.Name
	Name    string
	Failure string
	Run     ActionFunc
}

func adminActions() []Action {
	return []Action{
		{View: ViewUsers, Name: "save", Failure: "Could not save the user.", Run: saveUser},
		{View: ViewUsers, Name: "delete", Failure: "Could not delete the user.", Run: deleteUser},
		{View: ViewEmployees, Name: "save", Failure: "Could not save the employee.", Run: saveEmployee},
		{View: ViewEmployees, Name: "delete", Failure: "Could not delete the employee.", Run: deleteEmployee},
		{View: ViewLeaves, Name: "approve", Failure: "Could not approve the request.", Run: decideLeave(true)},
		{View: ViewLeaves, Name: "reject", Failure: "Could not reject the request.", Run: decideLeave(false)},
		{View: ViewPayroll, Name: "calculate", Failure: "Could not calculate payroll.", Run: calculatePayroll},
		{View: ViewPerformance, Name: "save", Failure: "Could not save the review.", Run: saveReview},
		{View: ViewPerformance, Name: "delete", Failure: "Could not delete the review.", Run: deleteReview},
	}
}

func employeeActions() []Action {
	return []Action{
		{View: ViewLeaves, Name: "create", Failure: "Could not submit the leave request.", Run: createLeave},
		{View: ViewCompliance, Name: "acknowledge", Failure: "Could not acknowledge the policy.", Run: acknowledgePolicy},
	}
}

// Action returns the named action of view.
func (s *Surface) Action(name view.Name, action string) (Action, bool) {
	for _, a := range s.Actions {
		if a.View == name && a.Name == action {
			return a, true
		}
	}
	return Action{}, false
}

// Perform runs an action, then re-enters its view so the region reloads, and
// leaves the outcome as the region's flash. Validation errors never reach the
// backend.
func (w *Workspace) Perform(ctx context.Context, name view.Name, action string, form url.Values) error {
	a, ok := w.Surface.Action(name, action)
	if !ok {
		return ErrUnknownAction
	}

	msg, err := a.Run(ctx, w, form)
	if err != nil {
		w.logger.WarnContext(ctx, "feature action failed",
			"view", name,
			"action", action,
			"error_class", obserrors.Classify(err),
			"error", err,
		)
		if hrapi.IsAuthRejected(err) && w.deps.OnAuthRejected != nil {
			w.deps.OnAuthRejected(ctx, w.SessionID)
		}
	} else {
		// A saved record no longer needs its edit prefill.
		f := w.Filters(name)
		f.Del("edit")
		w.SetFilters(name, f)
	}

	w.Activate(ctx, name)
	if err != nil {
		w.Board.SetFlash(name, FlashError, Notice(err, a.Failure))
		return err
	}
	w.Board.SetFlash(name, FlashSuccess, msg)
	return nil
}

func saveUser(ctx context.Context, w *Workspace, form url.Values) (string, error) {
	id, in, err := ParseUserForm(form)
	if err != nil {
		return "", err
	}
	u, err := w.API().SaveUser(ctx, id, in)
	if err != nil {
		return "", err
	}
	return "Saved user " + u.Username + ".", nil
}

func deleteUser(ctx context.Context, w *Workspace, form url.Values) (string, error) {
	id, err := requiredID(form, "id")
	if err != nil {
		return "", err
	}
	if err := w.API().DeleteUser(ctx, id); err != nil {
		return "", err
	}
	return "User deleted.", nil
}

func saveEmployee(ctx context.Context, w *Workspace, form url.Values) (string, error) {
	id, in, err := ParseEmployeeForm(form)
	if err != nil {
		return "", err
	}
	e, err := w.API().SaveEmployee(ctx, id, in)
	if err != nil {
		return "", err
	}
	return "Saved employee " + e.FullName + ".", nil
}

func deleteEmployee(ctx context.Context, w *Workspace, form url.Values) (string, error) {
	id, err := requiredID(form, "id")
	if err != nil {
		return "", err
	}
	if err := w.API().DeleteEmployee(ctx, id); err != nil {
		return "", err
	}
	return "Employee deleted.", nil
}

func decideLeave(approve bool) ActionFunc {
	return func(ctx context.Context, w *Workspace, form url.Values) (string, error) {
		id, err := requiredID(form, "id")
		if err != nil {
			return "", err
		}
		if _, err := w.API().DecideLeave(ctx, id, approve); err != nil {
			return "", err
		}
		if approve {
			return "Leave request approved.", nil
		}
		return "Leave request rejected.", nil
	}
}

func calculatePayroll(ctx context.Context, w *Workspace, form url.Values) (string, error) {
	in, err := ParsePayrollForm(form)
	if err != nil {
		return "", err
	}
	p, err := w.API().CalculatePayroll(ctx, in)
	if err != nil {
		return "", err
	}
	return "Payroll calculated for employee " + strconv.Itoa(p.EmployeeID) + ".", nil
}

func saveReview(ctx context.Context, w *Workspace, form url.Values) (string, error) {
	id, in, err := ParseReviewForm(form)
	if err != nil {
		return "", err
	}
	if _, err := w.API().SavePerformanceReview(ctx, id, in); err != nil {
		return "", err
	}
	return "Review saved.", nil
}

func deleteReview(ctx context.Context, w *Workspace, form url.Values) (string, error) {
	id, err := requiredID(form, "id")
	if err != nil {
		return "", err
	}
	if err := w.API().DeletePerformanceReview(ctx, id); err != nil {
		return "", err
	}
	return "Review deleted.", nil
}

func createLeave(ctx context.Context, w *Workspace, form url.Values) (string, error) {
	emp, err := w.EmployeeID()
	if err != nil {
		return "", err
	}
	in, err := ParseLeaveForm(form, emp)
	if err != nil {
		return "", err
	}
	if _, err := w.API().CreateLeave(ctx, in); err != nil {
		return "", err
	}
	return "Leave request submitted.", nil
}

func acknowledgePolicy(ctx context.Context, w *Workspace, form url.Values) (string, error) {
	id, err := requiredID(form, "id")
	if err != nil {
		return "", err
	}
	if err := w.API().AcknowledgePolicy(ctx, id); err != nil {
		return "", err
	}
	return "Policy acknowledged.", nil
}

// Download fetches a report the surface offers. Payslips are always scoped to
// the caller's own employee record.
func (w *Workspace) Download(ctx context.Context, report string, q url.Values) (*hrapi.Blob, error) {
	r := hrapi.Report(report)
	allowed := false
	for _, a := range w.Surface.Reports {
		if a == r {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrUnknownReport
	}

	query := url.Values{}
	if r == hrapi.ReportPayslipPDF {
		emp, err := w.EmployeeID()
		if err != nil {
			return nil, err
		}
		year, month := intParam(q, "year"), intParam(q, "month")
		if year == 0 || month < 1 || month > 12 {
			return nil, apperrors.Validation("month", "Choose a payroll month to download.")
		}
		query.Set("employee_id", strconv.Itoa(emp))
		query.Set("year", strconv.Itoa(year))
		query.Set("month", strconv.Itoa(month))
	}

	blob, err := w.API().DownloadReport(ctx, r, query)
	if err != nil && hrapi.IsAuthRejected(err) && w.deps.OnAuthRejected != nil {
		w.deps.OnAuthRejected(ctx, w.SessionID)
	}
	return blob, err
}
