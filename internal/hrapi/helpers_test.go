package hrapi

import "github.com/target/hr-dashboard/internal/domain/hr"

func hrLeaveInput(reason string) hr.LeaveInput {
	return hr.LeaveInput{
		EmployeeID: 7,
		StartDate:  "2025-02-01",
		EndDate:    "2025-02-02",
		Reason:     &reason,
	}
}
